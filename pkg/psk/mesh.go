package psk

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/psk-tools/pkg/archive"
)

// WriteOptions controls the file writers.
type WriteOptions struct {
	Version int32 // Tag for every chunk; zero means VersionLegacy
}

func (o WriteOptions) version() int32 {
	if o.Version == 0 {
		return VersionLegacy
	}
	return o.Version
}

// Mesh is the content of a skeletal mesh file.
type Mesh struct {
	Headers    []ChunkHeader // Every chunk header in file order
	Skipped    []ChunkHeader // Chunks with identifiers the reader does not handle
	Points     []Point
	Wedges     []Vertex
	Faces      []Triangle
	Materials  []Material
	Bones      []Bone
	Influences []BoneInfluence
}

// ReadMesh reads chunks until the end of r. A chunk that appears twice
// replaces the earlier one.
func ReadMesh(r io.Reader) (*Mesh, error) {
	a := archive.NewReader(r)
	m := &Mesh{}

	for {
		h, err := ReadHeader(a)
		if err == io.EOF {
			return m, nil
		}
		if err != nil {
			return nil, err
		}
		m.Headers = append(m.Headers, h)

		switch h.ID() {
		case ChunkActorHead:
			err = SkipChunk(a, h)
		case ChunkPoints:
			m.Points, err = LoadRecords[Point](a, h)
		case ChunkWedges:
			m.Wedges, err = LoadRecords[Vertex](a, h)
		case ChunkFaces:
			m.Faces, err = LoadRecords[Triangle](a, h)
		case ChunkMaterials:
			m.Materials, err = LoadRecords[Material](a, h)
		case ChunkBones:
			m.Bones, err = LoadRecords[Bone](a, h)
		case ChunkInfluences:
			m.Influences, err = LoadRecords[BoneInfluence](a, h)
		default:
			m.Skipped = append(m.Skipped, h)
			err = SkipChunk(a, h)
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadMeshFile reads a skeletal mesh file from disk.
func ReadMeshFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening mesh")
	}
	defer f.Close()

	m, err := ReadMesh(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return m, nil
}

// Write saves the mesh in the conventional chunk order.
func (m *Mesh) Write(w io.Writer, opts WriteOptions) error {
	a := archive.NewWriter(w)
	v := opts.version()

	if err := SaveHeader(a, ChunkActorHead, v); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkPoints, v, m.Points); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkWedges, v, m.Wedges); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkFaces, v, m.Faces); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkMaterials, v, m.Materials); err != nil {
		return err
	}
	if err := SaveChunkVersion(a, ChunkBones, v, m.Bones); err != nil {
		return err
	}
	return SaveChunkVersion(a, ChunkInfluences, v, m.Influences)
}

// WriteFile saves the mesh to path.
func (m *Mesh) WriteFile(path string, opts WriteOptions) error {
	return writeFile(path, func(w io.Writer) error { return m.Write(w, opts) })
}

// Version returns the version tag of the first chunk, or 0 for an empty mesh.
func (m *Mesh) Version() int32 {
	if len(m.Headers) == 0 {
		return 0
	}
	return m.Headers[0].TypeFlag
}

// Validate checks every index field against the arrays it refers to and
// returns one error per offending record.
func (m *Mesh) Validate() []error {
	var errs []error
	outOfRange := func(format string, args ...interface{}) {
		errs = append(errs, errors.Wrapf(ErrIndexOutOfRange, format, args...))
	}

	for i, w := range m.Wedges {
		if int(w.PointIndex) >= len(m.Points) {
			outOfRange("wedge %d: point %d of %d", i, w.PointIndex, len(m.Points))
		}
		if len(m.Materials) > 0 && int(w.MatIndex) >= len(m.Materials) {
			outOfRange("wedge %d: material %d of %d", i, w.MatIndex, len(m.Materials))
		}
	}
	for i, f := range m.Faces {
		for _, wi := range f.WedgeIndex {
			if int(wi) >= len(m.Wedges) {
				outOfRange("face %d: wedge %d of %d", i, wi, len(m.Wedges))
			}
		}
		if len(m.Materials) > 0 && int(f.MatIndex) >= len(m.Materials) {
			outOfRange("face %d: material %d of %d", i, f.MatIndex, len(m.Materials))
		}
	}
	for i, inf := range m.Influences {
		if inf.PointIndex < 0 || int(inf.PointIndex) >= len(m.Points) {
			outOfRange("influence %d: point %d of %d", i, inf.PointIndex, len(m.Points))
		}
		if inf.BoneIndex < 0 || int(inf.BoneIndex) >= len(m.Bones) {
			outOfRange("influence %d: bone %d of %d", i, inf.BoneIndex, len(m.Bones))
		}
	}
	return errs
}

// InfluencesByPoint groups the skin influences by point index. Influences
// with an out-of-range point are dropped.
func (m *Mesh) InfluencesByPoint() [][]BoneInfluence {
	byPoint := make([][]BoneInfluence, len(m.Points))
	for _, inf := range m.Influences {
		if inf.PointIndex >= 0 && int(inf.PointIndex) < len(byPoint) {
			byPoint[inf.PointIndex] = append(byPoint[inf.PointIndex], inf)
		}
	}
	return byPoint
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating file")
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
