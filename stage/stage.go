// Package stage materializes encoded archive packages onto durable storage.
package stage

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/faasline/harness/errors"
)

const archiveFileName = "package.tgz"

// Stager unpacks base64-encoded archive bytes into a fresh directory.
//
// Staged directories outlive the harness; the stager never cleans up, on
// success or failure. Reclaiming disk is the supervisor's responsibility.
type Stager struct {
	root string // parent for temp dirs, "" means the system default
	tar  string // decompression utility
	log  *zap.Logger
}

// Option configures a Stager.
type Option func(*Stager)

// WithRoot sets the parent directory for staged packages.
func WithRoot(dir string) Option {
	return func(s *Stager) { s.root = dir }
}

// WithTarBinary overrides the decompression utility path.
func WithTarBinary(path string) Option {
	return func(s *Stager) { s.tar = path }
}

// WithLogger sets the stager's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Stager) { s.log = log }
}

// New creates a Stager.
func New(opts ...Option) *Stager {
	s := &Stager{tar: "tar", log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage decodes encoded archive bytes, persists them under a fresh
// collision-resistant directory, extracts them into a second fresh directory
// and returns that directory's canonical path.
func (s *Stager) Stage(ctx context.Context, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.ArchiveWrite("decode archive", err)
	}

	archiveDir, err := os.MkdirTemp(s.root, "package-")
	if err != nil {
		return "", errors.ArchiveWrite("create archive dir", err)
	}
	archivePath := filepath.Join(archiveDir, archiveFileName)
	if err := os.WriteFile(archivePath, raw, 0o600); err != nil {
		return "", errors.ArchiveWrite("persist archive", err)
	}

	stagedDir, err := os.MkdirTemp(s.root, "action-")
	if err != nil {
		return "", errors.ArchiveExtract("create staging dir", err)
	}

	cmd := exec.CommandContext(ctx, s.tar, "-xzf", archivePath, "-C", stagedDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.ArchiveExtract(strings.TrimSpace(stderr.String()), err)
	}

	canonical, err := filepath.EvalSymlinks(stagedDir)
	if err != nil {
		// The dir was just created, so this is a storage-layer problem.
		return "", errors.ArchiveExtract("canonicalize staging dir", err)
	}

	s.log.Debug("staged package",
		zap.String("archive", archivePath),
		zap.String("dir", canonical),
		zap.Int("bytes", len(raw)))
	return canonical, nil
}
