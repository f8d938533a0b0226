package psk

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/archive"
)

// SaveChunk writes a chunk tagged VersionLegacy: a header whose DataSize is
// the record size and DataCount is len(records), then every record in order.
func SaveChunk[T any, PT Record[T]](a *archive.Archive, id string, records []T) error {
	return SaveChunkVersion[T, PT](a, id, VersionLegacy, records)
}

// SaveChunkVersion is SaveChunk with an explicit version tag.
func SaveChunkVersion[T any, PT Record[T]](a *archive.Archive, id string, version int32, records []T) error {
	if a.IsLoading() {
		return ErrWrongDirection
	}

	h := NewChunkHeader(id, version)
	if h.ID() == "" {
		return ErrEmptyChunkID
	}
	if len(records) > MaxElementCount {
		return errors.Wrapf(ErrTooManyElements, "chunk %s: %d elements", id, len(records))
	}

	var zero T
	h.DataSize = PT(&zero).Size()
	h.DataCount = int32(len(records))

	h.Transfer(a)
	if err := a.Err(); err != nil {
		return errors.Wrapf(err, "saving %s header", id)
	}

	for i := range records {
		PT(&records[i]).Transfer(a)
		if err := a.Err(); err != nil {
			return errors.Wrapf(err, "saving %s record %d", id, i)
		}
	}
	return nil
}

// preallocRecords caps the capacity reserved from a header's DataCount.
const preallocRecords = 4096

// LoadChunk reads a header and its records. The header is returned even when
// the records could not be read, so callers can report or skip the chunk.
func LoadChunk[T any, PT Record[T]](a *archive.Archive) (ChunkHeader, []T, error) {
	h, err := ReadHeader(a)
	if err != nil {
		return h, nil, err
	}
	records, err := LoadRecords[T, PT](a, h)
	return h, records, err
}

// LoadRecords reads the records of an already loaded header. The header is
// validated first: a DataSize that differs from the record size fails with
// ErrSizeMismatch before any record byte is consumed.
func LoadRecords[T any, PT Record[T]](a *archive.Archive, h ChunkHeader) ([]T, error) {
	if !a.IsLoading() {
		return nil, ErrWrongDirection
	}

	var zero T
	if err := h.Check(PT(&zero).Size()); err != nil {
		return nil, err
	}

	// DataCount is unverified until the records are read.
	records := make([]T, 0, min(int(h.DataCount), preallocRecords))
	for i := 0; i < int(h.DataCount); i++ {
		var rec T
		PT(&rec).Transfer(a)
		if err := a.Err(); err != nil {
			return nil, errors.Wrapf(truncated(err), "loading %s record %d of %d", h.ID(), i, h.DataCount)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SkipChunk discards the records of a header the caller does not want.
func SkipChunk(a *archive.Archive, h ChunkHeader) error {
	if !a.IsLoading() {
		return ErrWrongDirection
	}
	if err := h.checkShape(); err != nil {
		return err
	}

	a.Skip(h.PayloadSize())
	if err := a.Err(); err != nil {
		return errors.Wrapf(truncated(err), "skipping %s", h.ID())
	}
	return nil
}
