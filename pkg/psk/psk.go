// Package psk reads and writes the chunked binary containers used for
// skeletal meshes (.psk) and skeletal animations (.psa).
//
// A file is a flat sequence of chunks. Each chunk is a 32-byte ChunkHeader
// followed by DataCount fixed-size records of DataSize bytes. Records are
// transferred field by field through an archive.Archive, so the same
// Transfer method both loads and saves a record.
package psk

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/archive"
)

// Version tags written into ChunkHeader.TypeFlag.
const (
	VersionLegacy  int32 = 1999801 // Written by SaveChunk and the file writers by default
	VersionRevised int32 = 2003321
)

// KnownVersion reports whether v is one of the recognized version tags.
func KnownVersion(v int32) bool {
	return v == VersionLegacy || v == VersionRevised
}

// Conventional chunk identifiers.
const (
	ChunkActorHead  = "ACTRHEAD"
	ChunkPoints     = "PNTS0000"
	ChunkWedges     = "VTXW0000"
	ChunkFaces      = "FACE0000"
	ChunkMaterials  = "MATT0000"
	ChunkBones      = "REFSKELT"
	ChunkInfluences = "RAWWEIGHTS"

	ChunkAnimHead  = "ANIMHEAD"
	ChunkBoneNames = "BONENAMES"
	ChunkAnimInfo  = "ANIMINFO"
	ChunkAnimKeys  = "ANIMKEYS"
)

// MaxElementCount bounds DataCount on load and save. Loading reserves at
// most a few thousand records ahead of the bytes actually read.
const MaxElementCount = 1 << 24

// Chunk errors.
var (
	ErrSizeMismatch    = errors.New("chunk element size does not match record size")
	ErrNegativeCount   = errors.New("negative chunk element count")
	ErrTooManyElements = errors.New("chunk element count exceeds limit")
	ErrEmptyChunkID    = errors.New("empty chunk identifier")
	ErrWrongDirection  = archive.ErrWrongDirection
)

// Skeleton errors.
var (
	ErrNoRoot        = errors.New("skeleton has no root bone")
	ErrMultipleRoots = errors.New("skeleton has more than one root bone")
	ErrInvalidParent = errors.New("bone parent index out of range")
	ErrSkeletonCycle = errors.New("bone hierarchy contains a cycle")
)

// Content errors.
var (
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrKeyStreamShort    = errors.New("animation key stream shorter than sequences require")
	ErrKeyStreamExcess   = errors.New("animation key stream has keys no sequence uses")
	ErrBoneCountMismatch = errors.New("sequence bone count does not match skeleton")
	ErrInvalidSequence   = errors.New("invalid animation sequence")
)
