package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/psk-tools/internal/config"
	"github.com/Faultbox/psk-tools/internal/export"
	"github.com/Faultbox/psk-tools/internal/logger"
	"github.com/Faultbox/psk-tools/pkg/psk"
)

func cmdInfo(args []string) error {
	if len(args) < 1 {
		usage("info <file>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	headers, scanErr := psk.ScanChunks(bytes.NewReader(data))

	fmt.Printf("File:    %s\n", args[0])
	fmt.Printf("Size:    %d bytes\n", len(data))
	fmt.Printf("Kind:    %s\n", psk.KindOf(headers))
	if len(headers) > 0 {
		v := headers[0].TypeFlag
		fmt.Printf("Version: %d (%s)\n", v, versionName(v))
	}
	fmt.Println()
	fmt.Printf("  %-20s %9s %6s %8s %10s\n", "CHUNK", "VERSION", "SIZE", "COUNT", "BYTES")
	for _, h := range headers {
		fmt.Printf("  %-20s %9d %6d %8d %10d\n", h.ID(), h.TypeFlag, h.DataSize, h.DataCount, h.PayloadSize())
	}
	return scanErr
}

// recordSet is one decoded chunk.
type recordSet struct {
	id      string
	records interface{}
}

func (f *file) recordSets() []recordSet {
	if f.anim != nil {
		return []recordSet{
			{psk.ChunkBoneNames, f.anim.Bones},
			{psk.ChunkAnimInfo, f.anim.Infos},
			{psk.ChunkAnimKeys, f.anim.Keys},
		}
	}
	return []recordSet{
		{psk.ChunkPoints, f.mesh.Points},
		{psk.ChunkWedges, f.mesh.Wedges},
		{psk.ChunkFaces, f.mesh.Faces},
		{psk.ChunkMaterials, f.mesh.Materials},
		{psk.ChunkBones, f.mesh.Bones},
		{psk.ChunkInfluences, f.mesh.Influences},
	}
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N records per chunk (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		usage("dump [-n N] <file> [chunk]")
	}

	f, err := openFile(fs.Arg(0))
	if err != nil {
		return err
	}

	only := fs.Arg(1)
	dumper := spew.NewDefaultConfig()
	dumper.DisableCapacities = true
	dumper.DisablePointerAddresses = true

	found := false
	for _, set := range f.recordSets() {
		if only != "" && set.id != only {
			continue
		}
		found = true

		records := reflect.ValueOf(set.records)
		n := records.Len()
		if *limit > 0 && n > *limit {
			records = records.Slice(0, *limit)
		}
		fmt.Printf("== %s (%d records)\n", set.id, n)
		dumper.Dump(records.Interface())
	}
	if !found {
		return errors.Errorf("no chunk %q in %s file", only, f.kind)
	}
	return nil
}

func cmdValidate(args []string) error {
	if len(args) < 1 {
		usage("validate <file>")
	}

	f, err := openFile(args[0])
	if err != nil {
		return err
	}
	conv, err := psk.ParseRootConvention(cfg.Skeleton.RootConvention)
	if err != nil {
		return err
	}

	var problems []error
	var bones []psk.Bone
	if f.mesh != nil {
		problems = append(problems, f.mesh.Validate()...)
		bones = f.mesh.Bones
	} else {
		problems = append(problems, f.anim.Validate()...)
		bones = psk.BonesFromNamed(f.anim.Bones)
	}

	if len(bones) > 0 {
		skel, err := psk.NewSkeleton(bones, conv)
		if err != nil {
			problems = append(problems, errors.Wrapf(err, "skeleton (%s root convention)", conv))
		} else {
			for _, i := range skel.CheckChildCounts() {
				logger.Warn("child count disagrees with hierarchy",
					zap.Int("bone", i),
					zap.String("name", skel.Bone(i).Name()),
					zap.Int32("stored", skel.Bone(i).NumChildren),
					zap.Int("actual", len(skel.Children(i))))
			}
		}
	}

	for _, p := range problems {
		fmt.Printf("  %v\n", p)
	}
	if len(problems) > 0 {
		return errors.Errorf("%s: %d problems", f.path, len(problems))
	}
	fmt.Printf("%s: OK (%s, %d chunks)\n", f.path, f.kind, len(f.headers))
	return nil
}

func cmdAnims(args []string) error {
	fs := flag.NewFlagSet("anims", flag.ExitOnError)
	pose := fs.String("pose", "", "Print bone positions of this sequence")
	frame := fs.Float64("frame", 0, "Fractional frame sampled by -pose")
	fs.Parse(args)

	if fs.NArg() < 1 {
		usage("anims [-pose name [-frame f]] <file.psa>")
	}

	f, err := openFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if f.anim == nil {
		return errors.Errorf("%s is not an animation file", f.path)
	}

	seqs, err := f.anim.Sequences()
	if err != nil {
		return err
	}
	if *pose == "" {
		writeAnims(os.Stdout, seqs, len(f.anim.Keys))
		return nil
	}

	var seq *psk.Sequence
	for i := range seqs {
		if seqs[i].Name() == *pose {
			seq = &seqs[i]
			break
		}
	}
	if seq == nil {
		return errors.Errorf("sequence %q not found in %s", *pose, f.path)
	}

	conv, err := psk.ParseRootConvention(cfg.Skeleton.RootConvention)
	if err != nil {
		return err
	}
	skel, err := psk.NewSkeleton(psk.BonesFromNamed(f.anim.Bones), conv)
	if err != nil {
		return err
	}
	writePose(os.Stdout, skel, seq, float32(*frame), cfg.Export.FlipHandedness)
	return nil
}

func writeAnims(w io.Writer, seqs []psk.Sequence, keys int) {
	fmt.Fprintf(w, "  %-24s %-12s %6s %7s %8s %6s %8s\n", "NAME", "GROUP", "BONES", "FRAMES", "KEYS", "RATE", "SECONDS")
	for i := range seqs {
		s := &seqs[i]
		fmt.Fprintf(w, "  %-24s %-12s %6d %7d %8d %6.1f %8.2f\n",
			s.Name(), s.Info.Group(), s.NumBones(), s.NumFrames(), len(s.Keys), s.Info.AnimRate, s.Duration())
	}
	fmt.Fprintf(w, "\n%d sequences, %d keys\n", len(seqs), keys)
}

func writePose(w io.Writer, skel *psk.Skeleton, seq *psk.Sequence, frame float32, flip bool) {
	fmt.Fprintf(w, "%s at frame %.2f\n", seq.Name(), frame)
	for i, t := range skel.Pose(seq, frame, flip) {
		p := t.Position
		fmt.Fprintf(w, "  [%3d] %-24s %10.4f %10.4f %10.4f\n", i, skel.Bone(i).Name(), p.X, p.Y, p.Z)
	}
}

func cmdRewrite(args []string) error {
	fs := flag.NewFlagSet("rewrite", flag.ExitOnError)
	version := fs.String("version", strconv.Itoa(int(cfg.Format.SaveVersion)), "Version tag for every chunk")
	fs.Parse(args)

	if fs.NArg() < 2 {
		usage("rewrite [-version N] <in> <out>")
	}

	tag, err := strconv.ParseInt(*version, 10, 32)
	if err != nil {
		return errors.Wrap(err, "invalid -version")
	}

	f, err := openFile(fs.Arg(0))
	if err != nil {
		return err
	}

	opts := psk.WriteOptions{Version: int32(tag)}
	if f.mesh != nil {
		err = f.mesh.WriteFile(fs.Arg(1), opts)
	} else {
		err = f.anim.WriteFile(fs.Arg(1), opts)
	}
	if err != nil {
		return err
	}

	logger.Info("rewrote file",
		zap.String("from", fs.Arg(0)),
		zap.String("to", fs.Arg(1)),
		zap.Int32("version", opts.Version))
	return nil
}

func cmdConfig(args []string) error {
	if len(args) < 1 {
		usage("config init [path] | config show")
	}

	switch args[0] {
	case "init":
		var err error
		path := filepath.Join(config.ConfigDir(), config.FileName)
		if len(args) > 1 {
			path = args[1]
			err = cfg.SaveTo(path)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	case "show":
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return errors.Errorf("unknown config action %q", args[0])
	}
}

func cmdGLTF(args []string) error {
	fs := flag.NewFlagSet("gltf", flag.ExitOnError)
	asJSON := fs.Bool("json", !cfg.Export.Binary, "Write .gltf JSON with embedded buffers")
	name := fs.String("name", "", "Mesh node name (default: file name)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		usage("gltf [-json] [-name N] <file.psk> <out>")
	}

	f, err := openFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if f.mesh == nil {
		return errors.Errorf("%s is not a mesh file", f.path)
	}

	conv, err := psk.ParseRootConvention(cfg.Skeleton.RootConvention)
	if err != nil {
		return err
	}
	opts := export.Options{
		Name:           *name,
		Root:           conv,
		FlipHandedness: cfg.Export.FlipHandedness,
	}
	if opts.Name == "" {
		opts.Name = baseName(f.path)
	}

	doc, err := export.MeshToGLTF(f.mesh, opts)
	if err != nil {
		return err
	}

	out, err := os.Create(fs.Arg(1))
	if err != nil {
		return err
	}
	if err := export.Save(doc, out, !*asJSON); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.Info("exported glTF",
		zap.String("file", fs.Arg(1)),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("materials", len(doc.Materials)))
	return nil
}
