package binario

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var ErrStringTooLong = errors.New("string too long")

type Writer struct {
	writer    io.Writer
	byteOrder binary.ByteOrder
}

func NewWriter(writer io.Writer, byteOrder binary.ByteOrder) *Writer {
	return &Writer{
		writer:    writer,
		byteOrder: byteOrder,
	}
}

func (w *Writer) WriteUint8(value uint8) error {
	_, err := w.writer.Write([]byte{value})
	return err
}

func (w *Writer) WriteUint16(value uint16) error {
	bf := make([]byte, 2)
	w.byteOrder.PutUint16(bf, value)
	_, err := w.writer.Write(bf)

	return err
}

func (w *Writer) WriteUint32(value uint32) error {
	bf := make([]byte, 4)
	w.byteOrder.PutUint32(bf, value)
	_, err := w.writer.Write(bf)

	return err
}

func (w *Writer) WriteUint64(value uint64) error {
	bf := make([]byte, 8)
	w.byteOrder.PutUint64(bf, value)
	_, err := w.writer.Write(bf)

	return err
}

// WriteString writes a string prefixed with its 32-bit length.
func (w *Writer) WriteString(value string) error {
	if err := w.WriteUint32(uint32(len(value))); err != nil {
		return err
	}

	_, err := io.WriteString(w.writer, value)

	return err
}

// WriteShortString writes a string prefixed with a single length byte.
func (w *Writer) WriteShortString(value string) error {
	if len(value) > math.MaxUint8 {
		return ErrStringTooLong
	}

	if err := w.WriteUint8(uint8(len(value))); err != nil {
		return err
	}

	_, err := io.WriteString(w.writer, value)

	return err
}
