package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestCodecSendFileReq(t *testing.T) {
	codec := NewCodec()
	var buf bytes.Buffer

	req := &SendFileReq{PeerName: "laptop", Path: "/tmp/report.pdf"}
	if err := codec.Encode(&buf, req); err != nil {
		t.Fatalf("Encode SendFileReq failed: %v", err)
	}

	decoded, err := codec.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode SendFileReq failed: %v", err)
	}

	decodedReq, ok := decoded.(*SendFileReq)
	if !ok {
		t.Fatalf("Expected *SendFileReq, got %T", decoded)
	}
	if decodedReq.PeerName != "laptop" || decodedReq.Path != "/tmp/report.pdf" {
		t.Errorf("Unexpected request: %+v", decodedReq)
	}
}

func TestCodecDecodeFromBytes(t *testing.T) {
	codec := NewCodec()

	data, err := codec.EncodeToBytes(&SendFileRes{})
	if err != nil {
		t.Fatalf("EncodeToBytes failed: %v", err)
	}

	decoded, err := codec.DecodeFromBytes(data)
	if err != nil {
		t.Fatalf("DecodeFromBytes failed: %v", err)
	}

	if _, ok := decoded.(*SendFileRes); !ok {
		t.Errorf("Expected *SendFileRes, got %T", decoded)
	}
}

func TestCodecPeerList(t *testing.T) {
	codec := NewCodec()

	msg := &PeerListRes{Peers: []PeerInfo{
		{ID: "a", Name: "alpha", Addr: "192.168.1.2:5353", LastSeen: 1700000000000},
		{ID: "b", Name: "beta", Addr: "192.168.1.3:5353", LastSeen: 1700000001000},
	}}

	data, err := codec.EncodeToBytes(msg)
	if err != nil {
		t.Fatalf("EncodeToBytes failed: %v", err)
	}
	decoded, err := codec.DecodeFromBytes(data)
	if err != nil {
		t.Fatalf("DecodeFromBytes failed: %v", err)
	}

	res, ok := decoded.(*PeerListRes)
	if !ok {
		t.Fatalf("Expected *PeerListRes, got %T", decoded)
	}
	if len(res.Peers) != 2 {
		t.Fatalf("Expected 2 peers, got %d", len(res.Peers))
	}
	if res.Peers[1].Name != "beta" || res.Peers[1].LastSeen != 1700000001000 {
		t.Errorf("Peer mismatch: %+v", res.Peers[1])
	}
}

func TestCodecErrorImplementsError(t *testing.T) {
	codec := NewCodec()

	data, err := codec.EncodeToBytes(&Error{Code: ErrPeerNotOnline, Message: "laptop"})
	if err != nil {
		t.Fatalf("EncodeToBytes failed: %v", err)
	}
	decoded, err := codec.DecodeFromBytes(data)
	if err != nil {
		t.Fatalf("DecodeFromBytes failed: %v", err)
	}

	var target error
	e, ok := decoded.(*Error)
	if !ok {
		t.Fatalf("Expected *Error, got %T", decoded)
	}
	target = e
	if target.Error() != "PEER_NOT_ONLINE: laptop" {
		t.Errorf("Unexpected error text %q", target.Error())
	}
}

func TestCodecFramedStream(t *testing.T) {
	codec := NewCodec()
	var buf bytes.Buffer

	msgs := []Message{
		&WatchReq{},
		&Notification{Kind: KindPeerOnline, Peer: PeerInfo{ID: "x", Name: "desk"}, Timestamp: 42},
		&Notification{Kind: KindFileReceived, FileName: "a.txt", FileSize: 10, FilePath: "/d/a.txt", Sender: "10.0.0.9:5000"},
	}
	for _, m := range msgs {
		if err := codec.WriteMessage(&buf, m); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}

	for i, want := range msgs {
		got, err := codec.ReadMessage(&buf)
		if err != nil {
			t.Fatalf("ReadMessage %d failed: %v", i, err)
		}
		if got.Type() != want.Type() {
			t.Errorf("message %d: expected %s, got %s", i, want.Type(), got.Type())
		}
	}

	if _, err := codec.ReadMessage(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after last frame, got %v", err)
	}
}

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		msgType  MessageType
		expected string
	}{
		{MsgSendFileReq, "SEND_FILE_REQ"},
		{MsgPeerListRes, "PEER_LIST_RES"},
		{MsgNotification, "NOTIFICATION"},
		{MsgError, "ERROR"},
		{MessageType(0x9999), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.msgType.String(); got != tt.expected {
			t.Errorf("MessageType(%#x).String() = %s, want %s", uint16(tt.msgType), got, tt.expected)
		}
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrPeerNotOnline, "PEER_NOT_ONLINE"},
		{ErrFileNotFound, "FILE_NOT_FOUND"},
		{ErrTransfer, "TRANSFER_FAILED"},
		{ErrInternal, "INTERNAL_ERROR"},
		{ErrorCode(0x7777), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.expected {
			t.Errorf("ErrorCode(%#x).String() = %s, want %s", uint16(tt.code), got, tt.expected)
		}
	}
}
