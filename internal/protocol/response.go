package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Status tags every response so clients can tell a miss from a failure
// without parsing the body.
type Status uint8

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type Response struct {
	Status Status
	Body   string
}

// EncodeResponse serializes a response as <status:uint8><len:uint32><body>.
func EncodeResponse(status Status, body string) ([]byte, error) {
	bodyB := []byte(body)

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(bodyB))); err != nil {
		return nil, err
	}

	buf.Write(bodyB)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (*Response, error) {
	var status uint8
	var bodyLen uint32

	if err := binary.Read(r, binary.BigEndian, &status); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &bodyLen); err != nil {
		return nil, err
	}

	buf := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return &Response{Status: Status(status), Body: string(buf)}, nil
}
