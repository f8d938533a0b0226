package psk

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/archive"
	"github.com/Faultbox/psk-tools/pkg/encoding"
)

// HeaderSize is the on-disk size of a ChunkHeader.
const HeaderSize = 32

// ChunkHeader precedes every homogeneous array of records.
type ChunkHeader struct {
	ChunkID   [20]byte // Text identifier, zero padded
	TypeFlag  int32    // Version tag
	DataSize  int32    // Size of one record
	DataCount int32    // Number of records
}

// NewChunkHeader returns a header with the given identifier and version tag.
func NewChunkHeader(id string, version int32) ChunkHeader {
	var h ChunkHeader
	h.SetID(id)
	h.TypeFlag = version
	return h
}

// ID returns the chunk identifier as a string.
func (h *ChunkHeader) ID() string {
	return encoding.FixedStringToUTF8(h.ChunkID[:])
}

// SetID stores id into the identifier buffer, truncating to 20 bytes.
func (h *ChunkHeader) SetID(id string) {
	encoding.PutFixedString(h.ChunkID[:], id)
}

// PayloadSize returns the number of record bytes following the header.
func (h *ChunkHeader) PayloadSize() int64 {
	return int64(h.DataSize) * int64(h.DataCount)
}

// Size returns the on-disk size of the header.
func (ChunkHeader) Size() int32 {
	return HeaderSize
}

// String returns a one-line description of the header.
func (h ChunkHeader) String() string {
	return fmt.Sprintf("%s (version %d, %d x %d bytes)", h.ID(), h.TypeFlag, h.DataCount, h.DataSize)
}

// Transfer loads or saves the header fields in on-disk order.
func (h *ChunkHeader) Transfer(a *archive.Archive) {
	a.Chars(h.ChunkID[:])
	a.Int32(&h.TypeFlag)
	a.Int32(&h.DataSize)
	a.Int32(&h.DataCount)
}

// Check validates the header against the record size the caller intends to
// read. It never consumes stream bytes.
func (h *ChunkHeader) Check(recordSize int32) error {
	if err := h.checkShape(); err != nil {
		return err
	}
	if h.DataSize != recordSize {
		return errors.Wrapf(ErrSizeMismatch, "chunk %s: element size %d, record size %d",
			h.ID(), h.DataSize, recordSize)
	}
	if h.DataCount > MaxElementCount {
		return errors.Wrapf(ErrTooManyElements, "chunk %s: %d elements", h.ID(), h.DataCount)
	}
	return nil
}

func (h *ChunkHeader) checkShape() error {
	if h.ID() == "" {
		return ErrEmptyChunkID
	}
	if h.DataCount < 0 {
		return errors.Wrapf(ErrNegativeCount, "chunk %s: %d elements", h.ID(), h.DataCount)
	}
	if h.DataSize < 0 {
		return errors.Wrapf(ErrSizeMismatch, "chunk %s: negative element size %d", h.ID(), h.DataSize)
	}
	return nil
}

// ReadHeader loads the next chunk header. A stream that ends exactly at a
// chunk boundary returns io.EOF; one that ends inside the header returns an
// error wrapping io.ErrUnexpectedEOF.
func ReadHeader(a *archive.Archive) (ChunkHeader, error) {
	var h ChunkHeader
	if !a.IsLoading() {
		return h, ErrWrongDirection
	}

	start := a.Pos()
	h.Transfer(a)
	if err := a.Err(); err != nil {
		if errors.Is(err, io.EOF) {
			if a.Pos() == start {
				return h, io.EOF
			}
			return h, truncated(err)
		}
		return h, errors.Wrapf(err, "reading chunk header at offset %d", start)
	}
	return h, nil
}

// SaveHeader writes a record-less chunk (DataSize and DataCount zero), as
// used for the leading marker chunk of a file.
func SaveHeader(a *archive.Archive, id string, version int32) error {
	if a.IsLoading() {
		return ErrWrongDirection
	}
	h := NewChunkHeader(id, version)
	if h.ID() == "" {
		return ErrEmptyChunkID
	}
	h.Transfer(a)
	return errors.Wrapf(a.Err(), "saving %s header", id)
}

// truncated rewrites a stream error caused by a premature end of input so it
// matches io.ErrUnexpectedEOF rather than io.EOF.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.Wrap(io.ErrUnexpectedEOF, err.Error())
	}
	return err
}
