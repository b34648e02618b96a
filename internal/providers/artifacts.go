package providers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

type ArtifactStore interface {
	SaveBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error)
}

type localArtifactStore struct {
	rootDir string
}

func NewLocalArtifactStore(rootDir string) ArtifactStore {
	return &localArtifactStore{rootDir: rootDir}
}

func (s *localArtifactStore) SaveBytes(ctx context.Context, objectPath string, contentType string, data []byte) (string, error) {
	dst := filepath.Join(s.rootDir, objectPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return "", err
	}
	abs, _ := filepath.Abs(dst)
	return "file://" + abs, nil
}
