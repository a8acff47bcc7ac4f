package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxHeaderSize bounds the declared header length read off a transfer stream.
const MaxHeaderSize = 64 * 1024

const (
	headerFieldFileName protowire.Number = 1
	headerFieldFileSize protowire.Number = 2
)

var (
	ErrHeaderTooLarge  = errors.New("protocol: header too large")
	ErrMalformedHeader = errors.New("protocol: malformed header")
)

// FileHeader precedes the raw file bytes on every transfer stream.
type FileHeader struct {
	FileName string
	FileSize uint64
}

// MarshalBinary encodes the header with the protobuf wire format,
// file_name as field 1 followed by file_size as field 2.
func (h FileHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, len(h.FileName)+16)
	b = protowire.AppendTag(b, headerFieldFileName, protowire.BytesType)
	b = protowire.AppendString(b, h.FileName)
	b = protowire.AppendTag(b, headerFieldFileSize, protowire.VarintType)
	b = protowire.AppendVarint(b, h.FileSize)
	return b, nil
}

func (h *FileHeader) UnmarshalBinary(data []byte) error {
	var out FileHeader
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedHeader, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == headerFieldFileName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("%w: file_name: %v", ErrMalformedHeader, protowire.ParseError(n))
			}
			out.FileName = v
			data = data[n:]
		case num == headerFieldFileSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: file_size: %v", ErrMalformedHeader, protowire.ParseError(n))
			}
			out.FileSize = v
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformedHeader, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}

	*h = out
	return nil
}

// WriteHeader writes the 4-byte big-endian length followed by the encoded header.
func WriteHeader(w io.Writer, h FileHeader) error {
	data, err := h.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)

	_, err = w.Write(buf)
	return err
}

// ReadHeader reads exactly one length-prefixed header and leaves r positioned
// at the first payload byte.
func ReadHeader(r io.Reader) (FileHeader, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return FileHeader{}, fmt.Errorf("read header length: %w", err)
	}

	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > MaxHeaderSize {
		return FileHeader{}, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return FileHeader{}, fmt.Errorf("read header: %w", err)
	}

	var h FileHeader
	if err := h.UnmarshalBinary(data); err != nil {
		return FileHeader{}, err
	}
	return h, nil
}
