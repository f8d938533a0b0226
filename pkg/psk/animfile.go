package psk

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/archive"
)

// Anim is the content of a skeletal animation file.
type Anim struct {
	Headers []ChunkHeader // Every chunk header in file order
	Skipped []ChunkHeader // Chunks with identifiers the reader does not handle
	Bones   []NamedBone
	Infos   []AnimInfo
	Keys    []QuatAnimKey // Raw key stream shared by all sequences
}

// ReadAnim reads chunks until the end of r. A chunk that appears twice
// replaces the earlier one.
func ReadAnim(r io.Reader) (*Anim, error) {
	a := archive.NewReader(r)
	an := &Anim{}

	for {
		h, err := ReadHeader(a)
		if err == io.EOF {
			return an, nil
		}
		if err != nil {
			return nil, err
		}
		an.Headers = append(an.Headers, h)

		switch h.ID() {
		case ChunkAnimHead:
			err = SkipChunk(a, h)
		case ChunkBoneNames:
			an.Bones, err = LoadRecords[NamedBone](a, h)
		case ChunkAnimInfo:
			an.Infos, err = LoadRecords[AnimInfo](a, h)
		case ChunkAnimKeys:
			an.Keys, err = LoadRecords[QuatAnimKey](a, h)
		default:
			an.Skipped = append(an.Skipped, h)
			err = SkipChunk(a, h)
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadAnimFile reads a skeletal animation file from disk.
func ReadAnimFile(path string) (*Anim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening animation")
	}
	defer f.Close()

	an, err := ReadAnim(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return an, nil
}

// Write saves the animation in the conventional chunk order.
func (an *Anim) Write(w io.Writer, opts WriteOptions) error {
	a := archive.NewWriter(w)
	v := opts.version()

	if err := SaveHeader(a, ChunkAnimHead, v); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkBoneNames, v, an.Bones); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkAnimInfo, v, an.Infos); err != nil {
		return err
	}
	return SaveChunkVersion(a, ChunkAnimKeys, v, an.Keys)
}

// WriteFile saves the animation to path.
func (an *Anim) WriteFile(path string, opts WriteOptions) error {
	return writeFile(path, func(w io.Writer) error { return an.Write(w, opts) })
}

// Version returns the version tag of the first chunk, or 0 for an empty file.
func (an *Anim) Version() int32 {
	if len(an.Headers) == 0 {
		return 0
	}
	return an.Headers[0].TypeFlag
}

// Sequences slices the key stream by the animation descriptors.
func (an *Anim) Sequences() ([]Sequence, error) {
	return Slice(an.Infos, an.Keys)
}

// Validate checks that every sequence animates the whole skeleton and that
// the sequences cover the key stream exactly.
func (an *Anim) Validate() []error {
	var errs []error
	total := 0
	for i := range an.Infos {
		info := &an.Infos[i]
		if int(info.TotalBones) != len(an.Bones) {
			errs = append(errs, errors.Wrapf(ErrBoneCountMismatch, "sequence %d %q: %d bones, skeleton has %d",
				i, info.Name(), info.TotalBones, len(an.Bones)))
		}
		if info.TotalBones < 0 || info.NumRawFrames < 0 {
			errs = append(errs, errors.Wrapf(ErrInvalidSequence, "sequence %d %q: %d bones, %d frames",
				i, info.Name(), info.TotalBones, info.NumRawFrames))
			continue
		}
		total += info.KeyCount()
	}

	switch {
	case total > len(an.Keys):
		errs = append(errs, errors.Wrapf(ErrKeyStreamShort, "sequences need %d keys, stream has %d", total, len(an.Keys)))
	case total < len(an.Keys):
		errs = append(errs, errors.Wrapf(ErrKeyStreamExcess, "sequences use %d keys, stream has %d", total, len(an.Keys)))
	}
	return errs
}
