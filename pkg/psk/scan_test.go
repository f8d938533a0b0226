package psk

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestScanChunks(t *testing.T) {
	var mesh bytes.Buffer
	if err := buildTriangleMesh().Write(&mesh, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	var anim bytes.Buffer
	if err := buildWalkAnim().Write(&anim, WriteOptions{Version: VersionRevised}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		data     []byte
		wantIDs  []string
		wantKind Kind
	}{
		{"mesh", mesh.Bytes(), []string{ChunkActorHead, ChunkPoints, ChunkWedges, ChunkFaces, ChunkMaterials, ChunkBones, ChunkInfluences}, KindMesh},
		{"animation", anim.Bytes(), []string{ChunkAnimHead, ChunkBoneNames, ChunkAnimInfo, ChunkAnimKeys}, KindAnim},
		{"empty", nil, nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := ScanChunks(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("ScanChunks failed: %v", err)
			}
			if len(headers) != len(tt.wantIDs) {
				t.Fatalf("got %d headers, want %d", len(headers), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if headers[i].ID() != id {
					t.Errorf("header %d = %q, want %q", i, headers[i].ID(), id)
				}
			}
			if k := KindOf(headers); k != tt.wantKind {
				t.Errorf("KindOf = %v, want %v", k, tt.wantKind)
			}
		})
	}
}

func TestScanChunks_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := buildTriangleMesh().Write(&buf, WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()[:HeaderSize+HeaderSize+PointSize]

	headers, err := ScanChunks(bytes.NewReader(data))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
	if len(headers) != 2 || headers[1].ID() != ChunkPoints {
		t.Errorf("headers before failure = %v", headers)
	}
}

func TestKindOf_Unknown(t *testing.T) {
	h := NewChunkHeader("SOMETHING", VersionLegacy)
	if k := KindOf([]ChunkHeader{h}); k != KindUnknown || k.String() != "unknown" {
		t.Errorf("KindOf = %v", k)
	}
}
