package protocol

import (
	"bytes"
	"encoding/gob"
	"io"
)

func init() {
	gob.Register(&SendFileReq{})
	gob.Register(&SendFileRes{})
	gob.Register(&PeerListReq{})
	gob.Register(&PeerListRes{})
	gob.Register(&DeviceInfoReq{})
	gob.Register(&DeviceInfoRes{})
	gob.Register(&HistoryReq{})
	gob.Register(&HistoryRes{})
	gob.Register(&WatchReq{})
	gob.Register(&Notification{})
	gob.Register(&Error{})
}

// Codec gob-encodes IPC messages. Each message is self-contained, so it can
// be carried in its own frame.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

func (c *Codec) Encode(w io.Writer, msg Message) error {
	return gob.NewEncoder(w).Encode(&msg)
}

func (c *Codec) Decode(r io.Reader) (Message, error) {
	var msg Message
	if err := gob.NewDecoder(r).Decode(&msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (c *Codec) EncodeToBytes(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) DecodeFromBytes(data []byte) (Message, error) {
	return c.Decode(bytes.NewReader(data))
}

// WriteMessage encodes msg and writes it as one frame.
func (c *Codec) WriteMessage(w io.Writer, msg Message) error {
	data, err := c.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// ReadMessage reads one frame and decodes it.
func (c *Codec) ReadMessage(r io.Reader) (Message, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return c.DecodeFromBytes(data)
}
