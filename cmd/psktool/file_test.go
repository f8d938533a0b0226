package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/psk-tools/internal/config"
	"github.com/Faultbox/psk-tools/pkg/math"
	"github.com/Faultbox/psk-tools/pkg/psk"
)

func TestCheckVersions(t *testing.T) {
	headers := []psk.ChunkHeader{
		psk.NewChunkHeader(psk.ChunkActorHead, psk.VersionLegacy),
		psk.NewChunkHeader(psk.ChunkPoints, 20100422),
	}

	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{"lenient", false, false},
		{"strict", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = config.Default()
			cfg.Format.StrictVersions = tt.strict
			err := checkVersions(headers)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	cfg = config.Default()
	dir := t.TempDir()

	mesh := &psk.Mesh{Points: []psk.Point{{Position: math.Vec3{X: 1}}}}
	meshPath := filepath.Join(dir, "one.psk")
	if err := mesh.WriteFile(meshPath, psk.WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	f, err := openFile(meshPath)
	if err != nil {
		t.Fatalf("openFile failed: %v", err)
	}
	if f.kind != psk.KindMesh || f.mesh == nil || len(f.mesh.Points) != 1 {
		t.Errorf("got kind %v, mesh %v", f.kind, f.mesh)
	}

	// No marker chunk: the extension decides
	animPath := filepath.Join(dir, "bare.psa")
	if err := os.WriteFile(animPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	f, err = openFile(animPath)
	if err != nil {
		t.Fatalf("openFile failed: %v", err)
	}
	if f.kind != psk.KindAnim || f.anim == nil {
		t.Errorf("got kind %v, want animation", f.kind)
	}
}

func TestBaseName(t *testing.T) {
	if got := baseName("/models/Hero.PSK"); got != "Hero" {
		t.Errorf("baseName = %q, want Hero", got)
	}
}
