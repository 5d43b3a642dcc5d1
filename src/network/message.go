package network

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ugorji/go/codec"
)

const (
	// MaxPayloadSize bounds the payload length field of a frame. Frames
	// advertising more are treated as a protocol violation.
	MaxPayloadSize = 1 << 22

	// frame header: 1-byte command tag + 4-byte big-endian payload length
	headerSize = 5
)

var (
	// ErrNoData is returned by a poll when no frame arrived within the
	// polling interval.
	ErrNoData = errors.New("no data")

	// ErrPeerDisconnected is returned when sending to or polling a peer
	// whose transport has been torn down.
	ErrPeerDisconnected = errors.New("peer disconnected")
)

// Message is a unit of wire communication: a command tag and an opaque
// payload. Decoding the payload into a typed structure is the receiver's
// business, keyed on the command.
type Message struct {
	Command Command
	Payload []byte
}

// NewMessage builds a Message with an already-encoded payload.
func NewMessage(command Command, payload []byte) *Message {
	return &Message{
		Command: command,
		Payload: payload,
	}
}

// NewTypedMessage builds a Message by encoding the given payload object.
func NewTypedMessage(command Command, payload interface{}) (*Message, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return NewMessage(command, raw), nil
}

// EncodePayload returns the canonical JSON encoding of a payload object.
func EncodePayload(payload interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(payload); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodePayload parses an encoded payload into the provided object.
func DecodePayload(data []byte, payload interface{}) error {
	buf := bytes.NewBuffer(data)

	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(payload)
}

// writeMessage frames and writes a message: command tag, payload length,
// payload.
func writeMessage(w io.Writer, msg *Message) error {
	header := make([]byte, headerSize)
	header[0] = byte(msg.Command)
	binary.BigEndian.PutUint32(header[1:], uint32(len(msg.Payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}

	if len(msg.Payload) > 0 {
		if _, err := w.Write(msg.Payload); err != nil {
			return err
		}
	}

	return nil
}

// readMessage reads one framed message. The reader is expected to be
// positioned at a frame boundary.
func readMessage(r io.Reader) (*Message, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	command := Command(header[0])
	if !command.valid() {
		return nil, fmt.Errorf("unknown command tag %d", header[0])
	}

	length := binary.BigEndian.Uint32(header[1:])
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds limit", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	return NewMessage(command, payload), nil
}
