package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// MaxMessageSize is the largest encoded message accepted from a stream.
const MaxMessageSize = 32 << 20

// prefixSize is the number of bytes in the big-endian length prefix.
const prefixSize = 8

// ErrMessageTooLarge is returned when a frame exceeds MaxMessageSize.
var ErrMessageTooLarge = errors.New("message too large")

// envelope tags a payload with the kind of message it holds.
type envelope struct {
	Kind    Kind            `cbor:"1,keyasint"`
	Payload cbor.RawMessage `cbor:"2,keyasint"`
}

// Encode returns the CBOR encoding of the message.
func Encode(msg Message) ([]byte, error) {
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.Kind(), err)
	}

	return cbor.Marshal(envelope{Kind: msg.Kind(), Payload: payload})
}

// Decode converts the CBOR encoding produced by Encode back into a message.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	decode, exists := decoders[env.Kind]
	if !exists {
		return nil, fmt.Errorf("unknown message kind %d", uint8(env.Kind))
	}

	msg, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.Kind, err)
	}

	return msg, nil
}

// =============================================================================

// Send writes the message to the writer preceded by its length. A short
// write is an error, it's never retried.
func Send(w io.Writer, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	if len(data) > MaxMessageSize {
		return fmt.Errorf("%s: %w: %d bytes", msg.Kind(), ErrMessageTooLarge, len(data))
	}

	frame := make([]byte, prefixSize+len(data))
	binary.BigEndian.PutUint64(frame, uint64(len(data)))
	copy(frame[prefixSize:], data)

	n, err := w.Write(frame)
	if err != nil {
		return err
	}

	if n != len(frame) {
		return io.ErrShortWrite
	}

	messagesSent.WithLabelValues(msg.Kind().String()).Inc()

	return nil
}

// Receive reads one length prefixed message from the reader. It returns
// io.EOF when the stream ends cleanly before a new message starts and
// io.ErrUnexpectedEOF when it ends inside a message.
func Receive(r io.Reader) (Message, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint64(prefix[:])
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}

	messagesReceived.WithLabelValues(msg.Kind().String()).Inc()

	return msg, nil
}
