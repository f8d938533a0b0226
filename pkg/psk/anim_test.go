package psk

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/Faultbox/psk-tools/pkg/math"
)

func makeInfo(name string, bones, frames int32, rate float32) AnimInfo {
	var info AnimInfo
	info.SetName(name)
	info.SetGroup("None")
	info.TotalBones = bones
	info.NumRawFrames = frames
	info.AnimRate = rate
	info.TrackTime = float32(frames)
	return info
}

// makeKeys numbers every key through Time so slices can be located.
func makeKeys(n int) []QuatAnimKey {
	keys := make([]QuatAnimKey, n)
	for i := range keys {
		keys[i] = QuatAnimKey{
			Position:    math.Vec3{X: float32(i)},
			Orientation: math.QuatIdentity(),
			Time:        float32(i),
		}
	}
	return keys
}

func TestAnimInfo_KeyCount(t *testing.T) {
	info := makeInfo("Walk", 2, 5, 30)
	if got := info.KeyCount(); got != 10 {
		t.Errorf("KeyCount() = %d, want 10", got)
	}
}

func TestSlice(t *testing.T) {
	infos := []AnimInfo{
		makeInfo("Idle", 2, 5, 30),
		makeInfo("Walk", 2, 3, 30),
		makeInfo("Empty", 2, 0, 30),
	}
	keys := makeKeys(16)

	seqs, err := Slice(infos, keys)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if len(seqs) != 3 {
		t.Fatalf("got %d sequences, want 3", len(seqs))
	}

	tests := []struct {
		name      string
		offset    int
		keyCount  int
		firstTime float32
	}{
		{"Idle", 0, 10, 0},
		{"Walk", 10, 6, 10},
		{"Empty", 16, 0, 0},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seqs[i]
			if s.Name() != tt.name {
				t.Errorf("Name() = %q", s.Name())
			}
			if s.Offset != tt.offset || len(s.Keys) != tt.keyCount {
				t.Errorf("offset/len = %d/%d, want %d/%d", s.Offset, len(s.Keys), tt.offset, tt.keyCount)
			}
			if tt.keyCount > 0 && s.Keys[0].Time != tt.firstTime {
				t.Errorf("first key time = %v, want %v", s.Keys[0].Time, tt.firstTime)
			}
		})
	}
}

func TestSlice_Errors(t *testing.T) {
	tests := []struct {
		name    string
		infos   []AnimInfo
		keys    int
		wantErr error
	}{
		{"short stream", []AnimInfo{makeInfo("Walk", 2, 5, 30)}, 9, ErrKeyStreamShort},
		{"second short", []AnimInfo{makeInfo("A", 1, 4, 30), makeInfo("B", 1, 4, 30)}, 7, ErrKeyStreamShort},
		{"negative frames", []AnimInfo{makeInfo("Bad", 2, -1, 30)}, 0, ErrInvalidSequence},
		{"negative bones", []AnimInfo{makeInfo("Bad", -2, 1, 30)}, 0, ErrInvalidSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Slice(tt.infos, makeKeys(tt.keys))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSequence_KeyIsFrameMajor(t *testing.T) {
	seqs, err := Slice([]AnimInfo{makeInfo("Walk", 3, 4, 30)}, makeKeys(12))
	if err != nil {
		t.Fatal(err)
	}
	s := seqs[0]

	if got := s.Key(0, 2).Time; got != 2 {
		t.Errorf("Key(0, 2) = key %v, want 2", got)
	}
	if got := s.Key(2, 1).Time; got != 7 {
		t.Errorf("Key(2, 1) = key %v, want 7", got)
	}
	if got := s.Key(3, 2).Time; got != 11 {
		t.Errorf("Key(3, 2) = key %v, want 11", got)
	}
}

func TestSequence_Duration(t *testing.T) {
	s := Sequence{Info: makeInfo("Run", 1, 60, 30)}
	if got := s.Duration(); got != 2 {
		t.Errorf("Duration() = %v, want 2", got)
	}

	s.Info.AnimRate = 0
	s.Info.TrackTime = 1.5
	if got := s.Duration(); got != 1.5 {
		t.Errorf("Duration() without rate = %v, want 1.5", got)
	}
}

func TestSequence_Sample(t *testing.T) {
	// One bone, three frames at X = 0, 10, 20.
	keys := make([]QuatAnimKey, 3)
	for i := range keys {
		keys[i] = QuatAnimKey{Position: math.Vec3{X: float32(i) * 10}, Orientation: math.QuatIdentity()}
	}
	seqs, err := Slice([]AnimInfo{makeInfo("Slide", 1, 3, 30)}, keys)
	if err != nil {
		t.Fatal(err)
	}
	s := seqs[0]

	tests := []struct {
		name  string
		frame float32
		wantX float32
	}{
		{"first frame", 0, 0},
		{"midway", 0.5, 5},
		{"second frame", 1, 10},
		{"wraps to start", 2.5, 10},
		{"past the end", 4, 10},
		{"negative", -1, 20},
		{"tiny negative", -1e-20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, rot := s.Sample(0, tt.frame)
			if abs(pos.X-tt.wantX) > 0.001 {
				t.Errorf("X = %v, want %v", pos.X, tt.wantX)
			}
			if abs(rot.W-1) > 0.001 {
				t.Errorf("rotation = %v, want identity", rot)
			}
		})
	}

	for _, frame := range []float32{float32(stdmath.NaN()), float32(stdmath.Inf(1)), float32(stdmath.Inf(-1))} {
		pos, rot := s.Sample(0, frame)
		if pos != (math.Vec3{}) || rot != math.QuatIdentity() {
			t.Errorf("Sample(0, %v) = %v %v, want zero pose", frame, pos, rot)
		}
	}

	pos, rot := s.Sample(5, 0)
	if pos != (math.Vec3{}) || rot != math.QuatIdentity() {
		t.Errorf("out of range bone = %v %v, want zero pose", pos, rot)
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
