package psk

import (
	"bytes"
	"errors"
	stdmath "math"
	"testing"

	"github.com/Faultbox/psk-tools/pkg/archive"
	"github.com/Faultbox/psk-tools/pkg/math"
)

// quarterTurnZ rotates X onto Y.
var quarterTurnZ = math.Quat{Z: float32(stdmath.Sqrt2 / 2), W: float32(stdmath.Sqrt2 / 2)}

func makeBones(parents ...int32) []Bone {
	names := []string{"Root", "Pelvis", "Spine", "Head", "Arm", "Hand"}
	bones := make([]Bone, len(parents))
	for i, p := range parents {
		bones[i].SetName(names[i%len(names)])
		bones[i].ParentIndex = p
		bones[i].BonePos.Orientation = math.QuatIdentity()
	}
	return bones
}

func TestBoneTree_RoundTrip(t *testing.T) {
	in := []Bone{
		testBone("Root", 0),
		testBone("LeftLeg", 0),
		testBone("RightLeg", 0),
	}
	in[0].Flags = 1
	in[1].Flags = 2
	in[2].Flags = 3

	var buf bytes.Buffer
	if err := SaveChunk(archive.NewWriter(&buf), ChunkBones, in); err != nil {
		t.Fatal(err)
	}
	_, out, err := LoadChunk[Bone](archive.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	for i := range in {
		if out[i].Name() != in[i].Name() || out[i].Flags != in[i].Flags || out[i].ParentIndex != in[i].ParentIndex {
			t.Errorf("bone %d: got %q/%d/%d, want %q/%d/%d", i,
				out[i].Name(), out[i].Flags, out[i].ParentIndex,
				in[i].Name(), in[i].Flags, in[i].ParentIndex)
		}
	}

	s, err := NewSkeleton(out, RootSelf)
	if err != nil {
		t.Fatalf("NewSkeleton failed: %v", err)
	}
	if s.Root() != 0 {
		t.Errorf("Root() = %d, want 0", s.Root())
	}
	if got := s.Children(0); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Children(0) = %v, want [1 2]", got)
	}
}

func TestNewSkeleton_RootSelf(t *testing.T) {
	tests := []struct {
		name    string
		parents []int32
		wantErr error
	}{
		{"single root", []int32{0}, nil},
		{"chain", []int32{0, 0, 1, 2}, nil},
		{"parent after child", []int32{0, 2, 0}, nil},
		{"empty", nil, ErrNoRoot},
		{"root not self", []int32{1, 0}, ErrInvalidParent},
		{"second self root", []int32{0, 0, 2}, ErrMultipleRoots},
		{"out of range", []int32{0, 5}, ErrInvalidParent},
		{"negative parent", []int32{0, -1}, ErrInvalidParent},
		{"cycle", []int32{0, 2, 1}, ErrSkeletonCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSkeleton(makeBones(tt.parents...), RootSelf)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSkeleton_RootNegative(t *testing.T) {
	tests := []struct {
		name    string
		parents []int32
		wantRoot int
		wantErr error
	}{
		{"root first", []int32{-1, 0, 0}, 0, nil},
		{"root last", []int32{2, 2, -1}, 2, nil},
		{"zero is a reference", []int32{-1, 0, 1}, 0, nil},
		{"no root", []int32{1, 0}, 0, ErrNoRoot},
		{"self-rooted zero", []int32{0, 0}, 0, ErrSkeletonCycle},
		{"two roots", []int32{-1, -1}, 0, ErrMultipleRoots},
		{"out of range", []int32{-1, 3}, 0, ErrInvalidParent},
		{"cycle", []int32{-1, 2, 1}, 0, ErrSkeletonCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSkeleton(makeBones(tt.parents...), RootNegative)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Root() != tt.wantRoot {
				t.Errorf("Root() = %d, want %d", s.Root(), tt.wantRoot)
			}
		})
	}
}

func TestSkeleton_Navigation(t *testing.T) {
	s, err := NewSkeleton(makeBones(0, 0, 1, 2, 1), RootSelf)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := s.Parent(0); ok {
		t.Error("root should have no parent")
	}
	if p, ok := s.Parent(3); !ok || p != 2 {
		t.Errorf("Parent(3) = %d, %v; want 2, true", p, ok)
	}
	if d := s.Depth(3); d != 3 {
		t.Errorf("Depth(3) = %d, want 3", d)
	}
	if c := s.Children(1); len(c) != 2 || c[0] != 2 || c[1] != 4 {
		t.Errorf("Children(1) = %v, want [2 4]", c)
	}
	if i := s.Find("Head"); i != 3 {
		t.Errorf("Find(Head) = %d, want 3", i)
	}
	if i := s.Find("Tail"); i != -1 {
		t.Errorf("Find(Tail) = %d, want -1", i)
	}
	if s.Len() != 5 || s.Bone(2).Name() != "Spine" {
		t.Errorf("Len/Bone mismatch")
	}
}

func TestSkeleton_CheckChildCounts(t *testing.T) {
	bones := makeBones(0, 0, 0)
	bones[0].NumChildren = 2
	bones[1].NumChildren = 1 // wrong

	s, err := NewSkeleton(bones, RootSelf)
	if err != nil {
		t.Fatal(err)
	}
	got := s.CheckChildCounts()
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("CheckChildCounts() = %v, want [1]", got)
	}
}

func TestSkeleton_BindPose(t *testing.T) {
	bones := makeBones(0, 0, 1)
	bones[0].BonePos.Position = math.Vec3{X: 0, Y: 0, Z: 10}
	bones[1].BonePos.Position = math.Vec3{X: 1, Y: 0, Z: 0}
	bones[2].BonePos.Position = math.Vec3{X: 1, Y: 0, Z: 0}
	// Pelvis turns 90 degrees about Z; stored conjugated as exporters do.
	bones[1].BonePos.Orientation = quarterTurnZ.Conjugate()

	s, err := NewSkeleton(bones, RootSelf)
	if err != nil {
		t.Fatal(err)
	}

	world := s.BindPose(true)
	want := []math.Vec3{{X: 0, Y: 0, Z: 10}, {X: 1, Y: 0, Z: 10}, {X: 1, Y: 1, Z: 10}}
	for i, w := range want {
		got := math.Vec3{X: world[i][12], Y: world[i][13], Z: world[i][14]}
		if got.Sub(w).Length() > 0.001 {
			t.Errorf("bone %d origin = %v, want %v", i, got, w)
		}
	}
}

func TestParseRootConvention(t *testing.T) {
	tests := []struct {
		in      string
		want    RootConvention
		wantErr bool
	}{
		{"self", RootSelf, false},
		{"", RootSelf, false},
		{"negative", RootNegative, false},
		{"minus-one", RootSelf, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRootConvention(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !tt.wantErr && tt.in != "" && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

// bindKeys returns one frame of keys reproducing the bones' bind pose.
func bindKeys(bones []Bone) []QuatAnimKey {
	keys := make([]QuatAnimKey, len(bones))
	for i := range bones {
		keys[i] = QuatAnimKey{Position: bones[i].BonePos.Position, Orientation: bones[i].BonePos.Orientation}
	}
	return keys
}

func TestSkeleton_PoseMatchesBindPose(t *testing.T) {
	bones := makeBones(0, 0, 1, 1)
	bones[0].BonePos.Position = math.Vec3{Z: 10}
	bones[1].BonePos.Position = math.Vec3{X: 1}
	bones[1].BonePos.Orientation = quarterTurnZ
	bones[2].BonePos.Position = math.Vec3{X: 2}
	bones[3].BonePos.Position = math.Vec3{Y: 3}
	bones[3].BonePos.Orientation = quarterTurnZ.Conjugate()

	s, err := NewSkeleton(bones, RootSelf)
	if err != nil {
		t.Fatal(err)
	}
	seqs, err := Slice([]AnimInfo{makeInfo("Bind", 4, 1, 30)}, bindKeys(bones))
	if err != nil {
		t.Fatal(err)
	}

	for _, flip := range []bool{false, true} {
		bind := s.BindPose(flip)
		pose := s.Pose(&seqs[0], 0, flip)
		for i := range bones {
			want := math.Vec3{X: bind[i][12], Y: bind[i][13], Z: bind[i][14]}
			if pose[i].Position.Sub(want).Length() > 0.001 {
				t.Errorf("flip=%v bone %d: pose %v, bind %v", flip, i, pose[i].Position, want)
			}
		}
	}
}

func TestSkeleton_PoseAppliesKeys(t *testing.T) {
	bones := makeBones(0, 0)
	bones[1].BonePos.Position = math.Vec3{X: 1}

	s, err := NewSkeleton(bones, RootSelf)
	if err != nil {
		t.Fatal(err)
	}

	// Frame 0 leaves the root alone; frame 1 turns it a quarter about Z.
	keys := bindKeys(bones)
	turned := bindKeys(bones)
	turned[0].Orientation = quarterTurnZ
	seqs, err := Slice([]AnimInfo{makeInfo("Turn", 2, 2, 30)}, append(keys, turned...))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		frame float32
		want  math.Vec3
	}{
		{0, math.Vec3{X: 1}},
		{1, math.Vec3{Y: 1}},
	}
	for _, tt := range tests {
		pose := s.Pose(&seqs[0], tt.frame, false)
		if pose[1].Position.Sub(tt.want).Length() > 0.001 {
			t.Errorf("frame %v: child at %v, want %v", tt.frame, pose[1].Position, tt.want)
		}
	}

	// An empty sequence leaves the bind pose in place
	empty := Sequence{Info: makeInfo("Empty", 2, 0, 30)}
	if pose := s.Pose(&empty, 0, false); pose[1].Position.Sub(math.Vec3{X: 1}).Length() > 0.001 {
		t.Errorf("empty sequence moved child to %v", pose[1].Position)
	}
}
