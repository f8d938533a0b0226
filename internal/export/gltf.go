// Package export converts skeletal meshes to glTF 2.0 documents.
package export

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/psk-tools/pkg/psk"
)

// MaxInfluences is the number of bone influences kept per vertex.
const MaxInfluences = 4

// ErrNoFaces is returned for meshes without triangles; a glTF mesh needs at
// least one primitive.
var ErrNoFaces = errors.New("mesh has no faces")

// Options controls the conversion.
type Options struct {
	Name           string             // Mesh node name; defaults to "mesh"
	Root           psk.RootConvention // How the root bone is marked
	FlipHandedness bool               // Conjugate non-root bone orientations
}

// MeshToGLTF builds a skinned glTF document from a mesh. Every wedge
// becomes one vertex and faces are grouped into one primitive per material.
// Meshes without bones are exported unskinned.
func MeshToGLTF(m *psk.Mesh, opts Options) (*gltf.Document, error) {
	if errs := m.Validate(); len(errs) > 0 {
		return nil, errors.Wrapf(errs[0], "mesh has %d invalid references", len(errs))
	}
	if len(m.Faces) == 0 {
		return nil, ErrNoFaces
	}
	if opts.Name == "" {
		opts.Name = "mesh"
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "psktool"

	var skel *psk.Skeleton
	var jointNodes []uint32
	if len(m.Bones) > 0 {
		var err error
		skel, err = psk.NewSkeleton(m.Bones, opts.Root)
		if err != nil {
			return nil, errors.Wrap(err, "building skeleton")
		}
		jointNodes = addJoints(doc, skel, opts.FlipHandedness)
	}

	attributes := writeVertices(doc, m, skel != nil)

	for i := range m.Materials {
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: m.Materials[i].Name(),
		})
	}

	mesh := &gltf.Mesh{Name: opts.Name}
	for _, group := range groupFaces(m.Faces) {
		indices := make([]uint32, 0, len(group.faces)*3)
		for _, f := range group.faces {
			indices = append(indices, uint32(f.WedgeIndex[0]), uint32(f.WedgeIndex[1]), uint32(f.WedgeIndex[2]))
		}
		prim := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attributes,
		}
		if int(group.material) < len(doc.Materials) {
			prim.Material = gltf.Index(uint32(group.material))
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}
	doc.Meshes = append(doc.Meshes, mesh)

	meshNode := &gltf.Node{
		Name: opts.Name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
	}

	if skel != nil {
		doc.Skins = append(doc.Skins, &gltf.Skin{
			Name:                opts.Name + "_skin",
			Joints:              jointNodes,
			Skeleton:            gltf.Index(jointNodes[skel.Root()]),
			InverseBindMatrices: gltf.Index(writeInverseBindMatrices(doc, skel, opts.FlipHandedness)),
		})
		meshNode.Skin = gltf.Index(uint32(len(doc.Skins) - 1))
	}

	doc.Nodes = append(doc.Nodes, meshNode)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	if skel != nil {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, jointNodes[skel.Root()])
	}

	return doc, nil
}

// addJoints appends one node per bone and links children. It returns the
// node index of every bone.
func addJoints(doc *gltf.Document, skel *psk.Skeleton, flip bool) []uint32 {
	base := uint32(len(doc.Nodes))
	nodes := make([]uint32, skel.Len())

	for i := 0; i < skel.Len(); i++ {
		bone := skel.Bone(i)
		nodes[i] = base + uint32(i)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        bone.Name(),
			Translation: bone.BonePos.Position.Array(),
			Rotation:    skel.LocalRotation(i, flip).Normalize().Array(),
		})
	}
	for i := 0; i < skel.Len(); i++ {
		node := doc.Nodes[nodes[i]]
		for _, c := range skel.Children(i) {
			node.Children = append(node.Children, nodes[c])
		}
	}
	return nodes
}

func writeInverseBindMatrices(doc *gltf.Document, skel *psk.Skeleton, flip bool) uint32 {
	pose := skel.BindPose(flip)
	ibm := make([][4][4]float32, len(pose))
	for i, world := range pose {
		ibm[i] = world.Inverse().Columns()
	}
	return modeler.WriteAccessor(doc, gltf.TargetNone, ibm)
}

// writeVertices emits the per-wedge attribute accessors shared by every
// primitive.
func writeVertices(doc *gltf.Document, m *psk.Mesh, skinned bool) map[string]uint32 {
	positions := make([][3]float32, len(m.Wedges))
	uvs := make([][2]float32, len(m.Wedges))
	for i, w := range m.Wedges {
		positions[i] = m.Points[w.PointIndex].Position.Array()
		uvs[i] = [2]float32{w.U, w.V}
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(doc, positions),
		"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
	}
	if !skinned {
		return attributes
	}

	byPoint := m.InfluencesByPoint()
	joints := make([][4]uint16, len(m.Wedges))
	weights := make([][4]float32, len(m.Wedges))
	for i, w := range m.Wedges {
		joints[i], weights[i] = topInfluences(byPoint[w.PointIndex])
	}
	attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
	attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
	return attributes
}

// topInfluences keeps the MaxInfluences heaviest influences and normalizes
// their weights to sum to one. A point without influences is bound fully
// to joint 0.
func topInfluences(infs []psk.BoneInfluence) ([4]uint16, [4]float32) {
	var joints [4]uint16
	var weights [4]float32

	sorted := make([]psk.BoneInfluence, len(infs))
	copy(sorted, infs)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Weight > sorted[b].Weight })
	if len(sorted) > MaxInfluences {
		sorted = sorted[:MaxInfluences]
	}

	var total float32
	for i, inf := range sorted {
		if inf.Weight <= 0 {
			continue
		}
		joints[i] = uint16(inf.BoneIndex)
		weights[i] = inf.Weight
		total += inf.Weight
	}
	if total == 0 {
		return [4]uint16{}, [4]float32{1, 0, 0, 0}
	}
	for i := range weights {
		weights[i] /= total
	}
	return joints, weights
}

type faceGroup struct {
	material byte
	faces    []psk.Triangle
}

// groupFaces splits faces by material index in order of first use.
func groupFaces(faces []psk.Triangle) []faceGroup {
	var groups []faceGroup
	index := make(map[byte]int)
	for _, f := range faces {
		g, ok := index[f.MatIndex]
		if !ok {
			g = len(groups)
			index[f.MatIndex] = g
			groups = append(groups, faceGroup{material: f.MatIndex})
		}
		groups[g].faces = append(groups[g].faces, f)
	}
	return groups
}

// Save encodes doc to w as binary glTF (.glb) or as JSON with embedded
// buffers.
func Save(doc *gltf.Document, w io.Writer, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return errors.Wrap(enc.Encode(doc), "encoding glTF")
}
