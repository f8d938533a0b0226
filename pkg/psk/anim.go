package psk

import (
	stdmath "math"

	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/math"
)

// Sequence is one animation sequence and its slice of the raw key stream.
type Sequence struct {
	Info   AnimInfo
	Offset int           // Index of the first key in the shared stream
	Keys   []QuatAnimKey // KeyCount() keys, frame-major
}

// Slice splits the shared key stream into per-sequence ranges. Sequences
// are concatenated in descriptor order.
func Slice(infos []AnimInfo, keys []QuatAnimKey) ([]Sequence, error) {
	seqs := make([]Sequence, len(infos))
	offset := 0
	for i := range infos {
		info := &infos[i]
		if info.TotalBones < 0 || info.NumRawFrames < 0 {
			return nil, errors.Wrapf(ErrInvalidSequence, "sequence %d %q: %d bones, %d frames",
				i, info.Name(), info.TotalBones, info.NumRawFrames)
		}

		count := info.KeyCount()
		if offset+count > len(keys) {
			return nil, errors.Wrapf(ErrKeyStreamShort, "sequence %d %q needs keys [%d, %d), stream has %d",
				i, info.Name(), offset, offset+count, len(keys))
		}

		seqs[i] = Sequence{
			Info:   *info,
			Offset: offset,
			Keys:   keys[offset : offset+count : offset+count],
		}
		offset += count
	}
	return seqs, nil
}

// Name returns the sequence name.
func (s *Sequence) Name() string {
	return s.Info.Name()
}

// NumBones returns the number of bones animated per frame.
func (s *Sequence) NumBones() int {
	return int(s.Info.TotalBones)
}

// NumFrames returns the number of raw frames.
func (s *Sequence) NumFrames() int {
	return int(s.Info.NumRawFrames)
}

// Duration returns the play length in seconds. Without a positive frame
// rate the stored track time is used.
func (s *Sequence) Duration() float32 {
	if s.Info.AnimRate > 0 {
		return float32(s.Info.NumRawFrames) / s.Info.AnimRate
	}
	return s.Info.TrackTime
}

// Key returns the key of bone at frame. Keys are laid out frame-major: all
// bones of frame 0, then all bones of frame 1, and so on.
func (s *Sequence) Key(frame, bone int) QuatAnimKey {
	return s.Keys[frame*s.NumBones()+bone]
}

// Sample interpolates the pose of bone at a fractional frame. Frames wrap,
// so sampling between the last frame and NumFrames blends back to frame 0.
// A NaN or infinite frame yields the zero pose.
func (s *Sequence) Sample(bone int, frame float32) (math.Vec3, math.Quat) {
	n := s.NumFrames()
	if n == 0 || bone < 0 || bone >= s.NumBones() {
		return math.Vec3{}, math.QuatIdentity()
	}
	if stdmath.IsNaN(float64(frame)) || stdmath.IsInf(float64(frame), 0) {
		return math.Vec3{}, math.QuatIdentity()
	}

	f := stdmath.Mod(float64(frame), float64(n))
	if f < 0 {
		f += float64(n)
	}
	// A tiny negative frame rounds up to n
	if f >= float64(n) {
		f = 0
	}
	i0 := int(f)
	i1 := (i0 + 1) % n
	t := float32(f - float64(i0))

	k0 := s.Key(i0, bone)
	k1 := s.Key(i1, bone)
	return k0.Position.Lerp(k1.Position, t), k0.Orientation.Slerp(k1.Orientation, t)
}
