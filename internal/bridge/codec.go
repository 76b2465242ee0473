package bridge

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	// MaxOutgoingSize is the largest message the host may send to the
	// browser.
	MaxOutgoingSize = 1 << 20

	// MaxIncomingSize is the largest message the browser may send to the
	// host.
	MaxIncomingSize = 64 << 20
)

// ReadMessage reads one length-prefixed message. The prefix is a 32-bit
// unsigned length in little-endian order. An oversized message is skipped
// and reported with ErrMessageTooLarge so the stream stays in sync.
func ReadMessage(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > MaxIncomingSize {
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return nil, fmt.Errorf("failed to skip oversized message: %w", err)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	return buf, nil
}

// WriteMessage writes payload with its length prefix.
func WriteMessage(w io.Writer, payload []byte) error {
	if len(payload) > MaxOutgoingSize {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(payload))
	}
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload))) //nolint:gosec // bounded by MaxOutgoingSize
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

// Encoder writes JSON messages. It is safe for concurrent use.
type Encoder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode marshals v and writes it as one message.
func (e *Encoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return WriteMessage(e.w, data)
}
