package psk

import (
	"io"

	"github.com/Faultbox/psk-tools/pkg/archive"
)

// Kind identifies the content of a file by its leading chunk.
type Kind int

const (
	KindUnknown Kind = iota
	KindMesh
	KindAnim
)

// String returns "mesh", "animation" or "unknown".
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindAnim:
		return "animation"
	default:
		return "unknown"
	}
}

// KindOf classifies a file from its chunk headers.
func KindOf(headers []ChunkHeader) Kind {
	if len(headers) == 0 {
		return KindUnknown
	}
	switch headers[0].ID() {
	case ChunkActorHead:
		return KindMesh
	case ChunkAnimHead:
		return KindAnim
	default:
		return KindUnknown
	}
}

// ScanChunks reads every chunk header of r without decoding any record.
// Headers read before an error are returned with it.
func ScanChunks(r io.Reader) ([]ChunkHeader, error) {
	a := archive.NewReader(r)
	var headers []ChunkHeader
	for {
		h, err := ReadHeader(a)
		if err == io.EOF {
			return headers, nil
		}
		if err != nil {
			return headers, err
		}
		headers = append(headers, h)
		if err := SkipChunk(a, h); err != nil {
			return headers, err
		}
	}
}
