package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes photos below Root/photos and returns the relative
// path, e.g. "uploads/photos/1234_me.jpg".
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "uploads"
	}
	return &LocalStore{Root: root}
}

func (s *LocalStore) Save(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid photo name %q", name)
	}
	dir := filepath.Join(s.Root, "photos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path.Join(filepath.ToSlash(s.Root), "photos", name), nil
}

// Delete removes a photo saved by this store.  A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	prefix := path.Join(filepath.ToSlash(s.Root), "photos") + "/"
	name, ok := strings.CutPrefix(ref, prefix)
	if !ok || name == "" || path.Base(name) != name {
		return fmt.Errorf("photo %q is not in %s", ref, prefix)
	}
	err := os.Remove(filepath.Join(s.Root, "photos", name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}
