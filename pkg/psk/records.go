package psk

import (
	"github.com/Faultbox/psk-tools/pkg/archive"
	"github.com/Faultbox/psk-tools/pkg/encoding"
	"github.com/Faultbox/psk-tools/pkg/math"
)

// On-disk record sizes.
const (
	PointSize         = Vec3Size
	VertexSize        = 16
	TriangleSize      = 12
	MaterialSize      = 88
	BoneSize          = 64 + 3*4 + JointPosSize
	BoneInfluenceSize = 12
	AnimInfoSize      = 64 + 64 + 10*4
	QuatAnimKeySize   = Vec3Size + QuatSize + 4
)

// Record is satisfied by pointers to fixed-layout record types.
type Record[T any] interface {
	*T
	Transfer(a *archive.Archive)
	Size() int32
}

// Point is a mesh vertex position, shared by any number of wedges.
type Point struct {
	Position math.Vec3
}

// Size returns the on-disk size of a Point.
func (Point) Size() int32 { return PointSize }

// Transfer loads or saves the point.
func (p *Point) Transfer(a *archive.Archive) {
	transferVec3(a, &p.Position)
}

// Vertex is a mesh corner ("wedge"): a point reference plus texture
// coordinates and material.
type Vertex struct {
	PointIndex int32 // 16-bit index padded to 32 bits
	U, V       float32
	MatIndex   byte
	Reserved   byte
	Pad        int16 // Unused
}

// Size returns the on-disk size of a Vertex.
func (Vertex) Size() int32 { return VertexSize }

// Transfer loads or saves the vertex. Legacy exporters left garbage in the
// upper half of PointIndex, so only its low 16 bits survive a load.
func (v *Vertex) Transfer(a *archive.Archive) {
	a.Int32(&v.PointIndex)
	a.Float32(&v.U)
	a.Float32(&v.V)
	a.Byte(&v.MatIndex)
	a.Byte(&v.Reserved)
	a.Int16(&v.Pad)
	if a.IsLoading() {
		v.PointIndex &= 0xFFFF
	}
}

// Triangle is a face referencing three wedges.
type Triangle struct {
	WedgeIndex      [3]uint16
	MatIndex        byte
	AuxMatIndex     byte
	SmoothingGroups uint32 // Bitmask
}

// Size returns the on-disk size of a Triangle.
func (Triangle) Size() int32 { return TriangleSize }

// Transfer loads or saves the triangle.
func (t *Triangle) Transfer(a *archive.Archive) {
	for i := range t.WedgeIndex {
		a.Uint16(&t.WedgeIndex[i])
	}
	a.Byte(&t.MatIndex)
	a.Byte(&t.AuxMatIndex)
	a.Uint32(&t.SmoothingGroups)
}

// Material is one material slot.
type Material struct {
	MaterialName [64]byte
	TextureIndex int32
	PolyFlags    uint32 // Bitmask
	AuxMaterial  int32
	AuxFlags     uint32 // Bitmask
	LodBias      int32
	LodStyle     int32
}

// Size returns the on-disk size of a Material.
func (Material) Size() int32 { return MaterialSize }

// Name returns the material name.
func (m *Material) Name() string { return encoding.FixedStringToUTF8(m.MaterialName[:]) }

// SetName stores the material name, truncating to 64 bytes.
func (m *Material) SetName(name string) { encoding.PutFixedString(m.MaterialName[:], name) }

// Transfer loads or saves the material.
func (m *Material) Transfer(a *archive.Archive) {
	a.Chars(m.MaterialName[:])
	a.Int32(&m.TextureIndex)
	a.Uint32(&m.PolyFlags)
	a.Int32(&m.AuxMaterial)
	a.Uint32(&m.AuxFlags)
	a.Int32(&m.LodBias)
	a.Int32(&m.LodStyle)
}

// Bone is one joint of the reference skeleton.
type Bone struct {
	BoneName    [64]byte
	Flags       uint32
	NumChildren int32
	ParentIndex int32 // See RootConvention for how the root is marked
	BonePos     JointPos
}

// Size returns the on-disk size of a Bone.
func (Bone) Size() int32 { return BoneSize }

// Name returns the bone name.
func (b *Bone) Name() string { return encoding.FixedStringToUTF8(b.BoneName[:]) }

// SetName stores the bone name, truncating to 64 bytes.
func (b *Bone) SetName(name string) { encoding.PutFixedString(b.BoneName[:], name) }

// Transfer loads or saves the bone.
func (b *Bone) Transfer(a *archive.Archive) {
	a.Chars(b.BoneName[:])
	a.Uint32(&b.Flags)
	a.Int32(&b.NumChildren)
	a.Int32(&b.ParentIndex)
	b.BonePos.Transfer(a)
}

// NamedBone is the animation file's bone record. Its layout is Bone's.
type NamedBone Bone

// Size returns the on-disk size of a NamedBone.
func (NamedBone) Size() int32 { return BoneSize }

// Name returns the bone name.
func (b *NamedBone) Name() string { return (*Bone)(b).Name() }

// SetName stores the bone name, truncating to 64 bytes.
func (b *NamedBone) SetName(name string) { (*Bone)(b).SetName(name) }

// Transfer loads or saves the bone.
func (b *NamedBone) Transfer(a *archive.Archive) { (*Bone)(b).Transfer(a) }

// BonesFromNamed converts animation bones to skeleton bones.
func BonesFromNamed(named []NamedBone) []Bone {
	bones := make([]Bone, len(named))
	for i := range named {
		bones[i] = Bone(named[i])
	}
	return bones
}

// BoneInfluence is one weighted point-to-bone skin association.
type BoneInfluence struct {
	Weight     float32
	PointIndex int32
	BoneIndex  int32
}

// Size returns the on-disk size of a BoneInfluence.
func (BoneInfluence) Size() int32 { return BoneInfluenceSize }

// Transfer loads or saves the influence.
func (i *BoneInfluence) Transfer(a *archive.Archive) {
	a.Float32(&i.Weight)
	a.Int32(&i.PointIndex)
	a.Int32(&i.BoneIndex)
}

// AnimInfo describes one animation sequence and its slice of the raw key stream.
type AnimInfo struct {
	AnimName            [64]byte
	GroupName           [64]byte
	TotalBones          int32 // TotalBones * NumRawFrames keys belong to this sequence
	RootInclude         int32 // Unused
	KeyCompressionStyle int32 // Reserved
	KeyQuotum           int32
	KeyReduction        float32
	TrackTime           float32
	AnimRate            float32 // Frames per second
	StartBone           int32   // Reserved
	FirstRawFrame       int32
	NumRawFrames        int32
}

// Size returns the on-disk size of an AnimInfo.
func (AnimInfo) Size() int32 { return AnimInfoSize }

// Name returns the sequence name.
func (i *AnimInfo) Name() string { return encoding.FixedStringToUTF8(i.AnimName[:]) }

// SetName stores the sequence name, truncating to 64 bytes.
func (i *AnimInfo) SetName(name string) { encoding.PutFixedString(i.AnimName[:], name) }

// Group returns the group name.
func (i *AnimInfo) Group() string { return encoding.FixedStringToUTF8(i.GroupName[:]) }

// SetGroup stores the group name, truncating to 64 bytes.
func (i *AnimInfo) SetGroup(group string) { encoding.PutFixedString(i.GroupName[:], group) }

// KeyCount returns the number of raw keys this sequence consumes.
func (i *AnimInfo) KeyCount() int {
	return int(i.TotalBones) * int(i.NumRawFrames)
}

// Transfer loads or saves the descriptor.
func (i *AnimInfo) Transfer(a *archive.Archive) {
	a.Chars(i.AnimName[:])
	a.Chars(i.GroupName[:])
	a.Int32(&i.TotalBones)
	a.Int32(&i.RootInclude)
	a.Int32(&i.KeyCompressionStyle)
	a.Int32(&i.KeyQuotum)
	a.Float32(&i.KeyReduction)
	a.Float32(&i.TrackTime)
	a.Float32(&i.AnimRate)
	a.Int32(&i.StartBone)
	a.Int32(&i.FirstRawFrame)
	a.Int32(&i.NumRawFrames)
}

// QuatAnimKey is one bone pose sample.
type QuatAnimKey struct {
	Position    math.Vec3 // Relative to parent
	Orientation math.Quat // Relative to parent
	Time        float32   // Duration until the next key; the last key wraps to the first
}

// Size returns the on-disk size of a QuatAnimKey.
func (QuatAnimKey) Size() int32 { return QuatAnimKeySize }

// Transfer loads or saves the key.
func (k *QuatAnimKey) Transfer(a *archive.Archive) {
	transferVec3(a, &k.Position)
	transferQuat(a, &k.Orientation)
	a.Float32(&k.Time)
}
