package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores blobs under a root directory on disk and serves them
// from a static file route.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		root = "./data/files"
	}
	if baseURL == "" {
		baseURL = "/files"
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &Local{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (l *Local) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob path: %s", path)
	}
	return filepath.Join(l.root, cleaned), nil
}

func (l *Local) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	full, err := l.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}

	return l.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(path), "/"), nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", path, err)
	}
	return nil
}

func (l *Local) Root() string {
	return l.root
}
