package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/psk-tools/internal/logger"
	"github.com/Faultbox/psk-tools/pkg/psk"
)

// file is a decoded mesh or animation file.
type file struct {
	path    string
	headers []psk.ChunkHeader
	kind    psk.Kind
	mesh    *psk.Mesh
	anim    *psk.Anim
}

// openFile reads path, checks its version tags against the config and
// decodes it as a mesh or animation. Files without a recognized leading
// chunk are classified by extension.
func openFile(path string) (*file, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	headers, err := psk.ScanChunks(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	for _, h := range headers {
		logger.Debug("chunk", logger.Chunk(h)...)
	}
	if err := checkVersions(headers); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	f := &file{path: path, headers: headers, kind: psk.KindOf(headers)}
	if f.kind == psk.KindUnknown {
		f.kind = kindFromExt(path)
		logger.Warn("no leading marker chunk, guessing from extension",
			zap.String("file", path), zap.Stringer("kind", f.kind))
	}

	var skipped []psk.ChunkHeader
	if f.kind == psk.KindAnim {
		f.anim, err = psk.ReadAnim(bytes.NewReader(data))
		if f.anim != nil {
			skipped = f.anim.Skipped
		}
	} else {
		f.mesh, err = psk.ReadMesh(bytes.NewReader(data))
		if f.mesh != nil {
			skipped = f.mesh.Skipped
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	for _, h := range skipped {
		logger.Debug("skipped chunk", logger.Chunk(h)...)
	}
	return f, nil
}

func kindFromExt(path string) psk.Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".psa":
		return psk.KindAnim
	default:
		return psk.KindMesh
	}
}

// checkVersions warns about version tags outside the accepted list, or
// rejects them in strict mode. Each distinct tag is reported once.
func checkVersions(headers []psk.ChunkHeader) error {
	seen := make(map[int32]bool)
	for _, h := range headers {
		if cfg.Format.Accepts(h.TypeFlag) || seen[h.TypeFlag] {
			continue
		}
		seen[h.TypeFlag] = true
		if cfg.Format.StrictVersions {
			return errors.Errorf("chunk %s: version %d not accepted", h.ID(), h.TypeFlag)
		}
		logger.Warn("unaccepted version tag", logger.Chunk(h)...)
	}
	return nil
}

func versionName(v int32) string {
	switch v {
	case psk.VersionLegacy:
		return "legacy"
	case psk.VersionRevised:
		return "revised"
	default:
		return "unknown"
	}
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
