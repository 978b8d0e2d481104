package transport

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const frameHeaderSize = 8

// WriteFrame writes data preceded by its big-endian uint64 length.
func WriteFrame(w io.Writer, data []byte) error {
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "write frame header")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write frame data")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. A clean end of stream before
// the header returns io.EOF unwrapped.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "read frame header")
	}
	size := binary.BigEndian.Uint64(header[:])
	if size > uint64(maxSize) {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes, limit %d", size, maxSize)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "read frame data")
	}
	return data, nil
}
