package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxArgSize caps a single argument on the wire.
const MaxArgSize = 1 << 20

var (
	ErrArgTooLarge = errors.New("protocol: argument too large")
	ErrTooManyArgs = errors.New("protocol: too many arguments")
	ErrCommandName = errors.New("protocol: command name too long")
)

// Command represents a decoded client command received by the jewelstore
// server.
//
// A Command consists of a command name (Cmd) and its positional arguments.
// Most commands take a record kind as their first argument (e.g.
// "lookup catalog P1", "insert purchase O1 P1 2018-12-01 U1").
type Command struct {
	Cmd  string   // Command name (e.g. "lookup", "insert", "top-spender")
	Args []string // Positional arguments (may be empty)
}

// Arg returns the i-th argument or "" when it is absent.
func (c *Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><argc:uint8>{<arg_len:uint32><arg>}*<cmd>
//
// All integer fields are encoded using big-endian byte order. The command
// name is limited to 255 bytes, the argument count to 255 and each argument
// to MaxArgSize bytes.
func EncodeCommand(cmd string, args ...string) ([]byte, error) {
	if len(cmd) > 255 {
		return nil, ErrCommandName
	}
	if len(args) > 255 {
		return nil, ErrTooManyArgs
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(len(cmd)))
	buf.WriteByte(uint8(len(args)))

	for _, arg := range args {
		if len(arg) > MaxArgSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrArgTooLarge, len(arg))
		}
		if err := binary.Write(buf, binary.BigEndian, uint32(len(arg))); err != nil {
			return nil, err
		}
		buf.WriteString(arg)
	}

	buf.WriteString(cmd)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes a command from r, typically a TCP
// connection.
//
// DecodeCommand blocks until the full command has been read or an error
// occurs.
func DecodeCommand(r io.Reader) (*Command, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	cmdLen, argc := header[0], header[1]

	args := make([]string, 0, argc)
	for i := 0; i < int(argc); i++ {
		var argLen uint32
		if err := binary.Read(r, binary.BigEndian, &argLen); err != nil {
			return nil, err
		}
		if argLen > MaxArgSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrArgTooLarge, argLen)
		}

		argB := make([]byte, argLen)
		if _, err := io.ReadFull(r, argB); err != nil {
			return nil, err
		}
		args = append(args, string(argB))
	}

	cmdB := make([]byte, cmdLen)
	if _, err := io.ReadFull(r, cmdB); err != nil {
		return nil, err
	}

	return &Command{
		Cmd:  string(cmdB),
		Args: args,
	}, nil
}
