package psk

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/math"
)

// RootConvention selects how the root bone's ParentIndex is interpreted.
//
// ParentIndex 0 is ambiguous on its own: it can mean "I am the root" or
// "my parent is bone 0". Each convention resolves it one way and rejects
// data that contradicts it.
type RootConvention int

const (
	// RootSelf: bone 0 is the only root and its ParentIndex is 0. Every
	// other bone's ParentIndex is an ordinary reference; a non-zero bone
	// referencing itself is a second root.
	RootSelf RootConvention = iota
	// RootNegative: the single root carries a negative ParentIndex and
	// ParentIndex 0 always means "child of bone 0".
	RootNegative
)

// String returns the configuration name of the convention.
func (c RootConvention) String() string {
	switch c {
	case RootSelf:
		return "self"
	case RootNegative:
		return "negative"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ParseRootConvention parses "self" or "negative".
func ParseRootConvention(s string) (RootConvention, error) {
	switch s {
	case "self", "":
		return RootSelf, nil
	case "negative":
		return RootNegative, nil
	default:
		return RootSelf, errors.Errorf("unknown root convention %q", s)
	}
}

// Skeleton is a validated bone hierarchy.
type Skeleton struct {
	bones    []Bone
	parents  []int // -1 for the root
	children [][]int
	order    []int // Parents before children
	root     int
}

// NewSkeleton validates the parent indices of bones under conv and builds the
// hierarchy. The bones slice is retained, not copied.
func NewSkeleton(bones []Bone, conv RootConvention) (*Skeleton, error) {
	n := len(bones)
	if n == 0 {
		return nil, ErrNoRoot
	}

	s := &Skeleton{
		bones:    bones,
		parents:  make([]int, n),
		children: make([][]int, n),
		root:     -1,
	}

	for i := range bones {
		parent := int(bones[i].ParentIndex)
		isRoot := false

		switch conv {
		case RootSelf:
			if i == 0 {
				if parent != 0 {
					return nil, errors.Wrapf(ErrInvalidParent, "root bone %q has parent %d", bones[i].Name(), parent)
				}
				isRoot = true
			} else if parent == i {
				return nil, errors.Wrapf(ErrMultipleRoots, "bone %d %q references itself", i, bones[i].Name())
			}
		case RootNegative:
			if parent < 0 {
				isRoot = true
			} else if parent == i {
				return nil, errors.Wrapf(ErrSkeletonCycle, "bone %d %q references itself", i, bones[i].Name())
			}
		default:
			return nil, errors.Errorf("unknown root convention %d", int(conv))
		}

		if isRoot {
			if s.root >= 0 {
				return nil, errors.Wrapf(ErrMultipleRoots, "bones %d and %d", s.root, i)
			}
			s.root = i
			s.parents[i] = -1
			continue
		}

		if parent < 0 || parent >= n {
			return nil, errors.Wrapf(ErrInvalidParent, "bone %d %q has parent %d of %d bones", i, bones[i].Name(), parent, n)
		}
		s.parents[i] = parent
		s.children[parent] = append(s.children[parent], i)
	}

	if s.root < 0 {
		return nil, ErrNoRoot
	}

	// Every bone must be reachable from the root; anything else sits on a cycle.
	s.order = make([]int, 0, n)
	s.order = append(s.order, s.root)
	for i := 0; i < len(s.order); i++ {
		s.order = append(s.order, s.children[s.order[i]]...)
	}
	if len(s.order) != n {
		return nil, errors.Wrapf(ErrSkeletonCycle, "%d of %d bones unreachable from root", n-len(s.order), n)
	}

	return s, nil
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.bones)
}

// Bone returns bone i.
func (s *Skeleton) Bone(i int) *Bone {
	return &s.bones[i]
}

// Root returns the root bone index.
func (s *Skeleton) Root() int {
	return s.root
}

// Parent returns the parent of bone i, or false for the root.
func (s *Skeleton) Parent(i int) (int, bool) {
	p := s.parents[i]
	return p, p >= 0
}

// Children returns the child indices of bone i in array order.
func (s *Skeleton) Children(i int) []int {
	return s.children[i]
}

// Depth returns the number of ancestors of bone i.
func (s *Skeleton) Depth(i int) int {
	depth := 0
	for p := s.parents[i]; p >= 0; p = s.parents[p] {
		depth++
	}
	return depth
}

// Find returns the index of the first bone with the given name, or -1.
func (s *Skeleton) Find(name string) int {
	for i := range s.bones {
		if s.bones[i].Name() == name {
			return i
		}
	}
	return -1
}

// CheckChildCounts returns the indices of bones whose NumChildren field
// disagrees with the hierarchy.
func (s *Skeleton) CheckChildCounts() []int {
	var mismatched []int
	for i := range s.bones {
		if int(s.bones[i].NumChildren) != len(s.children[i]) {
			mismatched = append(mismatched, i)
		}
	}
	return mismatched
}

// LocalRotation returns the orientation of bone i relative to its parent.
// With flip set, non-root orientations are conjugated: exporters store them
// as the inverse rotation of a right-handed scene graph.
func (s *Skeleton) LocalRotation(i int, flip bool) math.Quat {
	q := s.bones[i].BonePos.Orientation
	if flip && i != s.root {
		q = q.Conjugate()
	}
	return q
}

// BindPose returns the model-space transform of every bone.
func (s *Skeleton) BindPose(flip bool) []math.Mat4 {
	world := make([]math.Mat4, len(s.bones))
	for _, i := range s.order {
		local := math.FromRotationTranslation(s.LocalRotation(i, flip), s.bones[i].BonePos.Position)
		if p := s.parents[i]; p >= 0 {
			world[i] = world[p].Mul(local)
		} else {
			world[i] = local
		}
	}
	return world
}

// Transform is a rigid model-space transform.
type Transform struct {
	Position math.Vec3
	Rotation math.Quat
}

// Pose returns the model-space transform of every bone with seq sampled at
// frame. Bones beyond the sequence's bone count, or every bone of an empty
// sequence, keep their bind pose. Key orientations are flipped like bone
// orientations.
func (s *Skeleton) Pose(seq *Sequence, frame float32, flip bool) []Transform {
	world := make([]Transform, len(s.bones))
	for _, i := range s.order {
		pos := s.bones[i].BonePos.Position
		rot := s.LocalRotation(i, flip)
		if seq.NumFrames() > 0 && i < seq.NumBones() {
			pos, rot = seq.Sample(i, frame)
			if flip && i != s.root {
				rot = rot.Conjugate()
			}
		}

		p := s.parents[i]
		if p < 0 {
			world[i] = Transform{Position: pos, Rotation: rot}
			continue
		}
		parent := world[p]
		world[i] = Transform{
			Position: parent.Position.Add(parent.Rotation.Rotate(pos)),
			Rotation: parent.Rotation.Mul(rot).Normalize(),
		}
	}
	return world
}
