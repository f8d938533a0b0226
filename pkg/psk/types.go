package psk

import (
	"github.com/Faultbox/psk-tools/pkg/archive"
	"github.com/Faultbox/psk-tools/pkg/math"
)

// Sizes of the fixed-layout types embedded in records.
const (
	Vec3Size     = 12
	QuatSize     = 16
	JointPosSize = QuatSize + Vec3Size + 4*4
)

func transferVec3(a *archive.Archive, v *math.Vec3) {
	a.Float32(&v.X)
	a.Float32(&v.Y)
	a.Float32(&v.Z)
}

func transferQuat(a *archive.Archive, q *math.Quat) {
	a.Float32(&q.X)
	a.Float32(&q.Y)
	a.Float32(&q.Z)
	a.Float32(&q.W)
}

// JointPos is a bone's bind-pose transform relative to its parent.
type JointPos struct {
	Orientation math.Quat
	Position    math.Vec3
	Length      float32 // Unused by importers
	XSize       float32
	YSize       float32
	ZSize       float32
}

// Transfer loads or saves the joint transform.
func (j *JointPos) Transfer(a *archive.Archive) {
	transferQuat(a, &j.Orientation)
	transferVec3(a, &j.Position)
	a.Float32(&j.Length)
	a.Float32(&j.XSize)
	a.Float32(&j.YSize)
	a.Float32(&j.ZSize)
}
