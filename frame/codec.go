package frame

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize bounds the encoded size of a single frame on the stream. An
// encoded frame with every field set takes well under this limit.
const MaxFrameSize = 64

var ErrFrameTooLarge = errors.New("frame too large")

const (
	fieldTimestamp protowire.Number = iota + 1
	fieldBusID
	fieldID
	fieldExtended
	fieldRTR
	fieldDLC
	fieldData
)

// Marshal encodes the frame as a protobuf wire message. Fields with
// zero values are omitted.
func Marshal(f Frame) []byte {
	b := make([]byte, 0, MaxFrameSize)

	appendVarint := func(num protowire.Number, v uint64) {
		if v != 0 {
			b = protowire.AppendTag(b, num, protowire.VarintType)
			b = protowire.AppendVarint(b, v)
		}
	}

	appendVarint(fieldTimestamp, uint64(f.Timestamp.Microseconds()))
	appendVarint(fieldBusID, uint64(f.BusID))
	appendVarint(fieldID, uint64(f.ID.ID))
	appendVarint(fieldExtended, protowire.EncodeBool(f.ID.Extended))
	appendVarint(fieldRTR, protowire.EncodeBool(f.RTR))
	appendVarint(fieldDLC, uint64(f.DLC))

	if f.Data != 0 {
		b = protowire.AppendTag(b, fieldData, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, f.Data)
	}

	return b
}

// Unmarshal decodes a frame previously encoded with Marshal. Unknown fields
// are skipped so that newer servers can extend the message.
func Unmarshal(b []byte) (Frame, error) {
	var f Frame

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Frame{}, fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}

		b = b[n:]

		switch {
		case num == fieldData && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("invalid data field: %w", protowire.ParseError(n))
			}

			f.Data = v
			b = b[n:]

		case num >= fieldTimestamp && num <= fieldDLC && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Frame{}, fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}

			f.setVarint(num, v)
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Frame{}, fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}

			b = b[n:]
		}
	}

	return f, nil
}

func (f *Frame) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldTimestamp:
		f.Timestamp = time.Duration(v) * time.Microsecond
	case fieldBusID:
		f.BusID = uint32(v)
	case fieldID:
		f.ID.ID = uint32(v)
	case fieldExtended:
		f.ID.Extended = protowire.DecodeBool(v)
	case fieldRTR:
		f.RTR = protowire.DecodeBool(v)
	case fieldDLC:
		f.DLC = uint8(v)
	}
}

// AppendFrame appends the length-prefixed encoding of the frame to b.
func AppendFrame(b []byte, f Frame) []byte {
	msg := Marshal(f)
	b = protowire.AppendVarint(b, uint64(len(msg)))

	return append(b, msg...)
}

// Reader decodes a stream of length-prefixed frames.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   bufio.NewReader(r),
		buf: make([]byte, MaxFrameSize),
	}
}

// ReadFrame blocks until the next frame is read. It returns io.EOF when the
// stream ends cleanly between two frames.
func (r *Reader) ReadFrame() (Frame, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		return Frame{}, err
	}

	if size > MaxFrameSize {
		return Frame{}, ErrFrameTooLarge
	}

	body := r.buf[:size]
	if _, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return Frame{}, err
	}

	return Unmarshal(body)
}
