package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const tmpSuffix = ".tmp"

// FilesystemStore maps object paths onto files under root.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &FilesystemStore{
		root: root,
	}, nil
}

var _ BlobStore = (*FilesystemStore)(nil)

func (s *FilesystemStore) filePath(p string) (string, error) {
	p, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(p)), nil
}

func (s *FilesystemStore) Get(_ context.Context, p string) ([]byte, error) {
	fp, err := s.filePath(p)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return content, nil
}

// Put writes to a temp file next to the target and renames it into place,
// so readers never see a partial object.
func (s *FilesystemStore) Put(_ context.Context, p string, data []byte) error {
	fp, err := s.filePath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fp), filepath.Base(fp)+".*"+tmpSuffix)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, fp); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

func (s *FilesystemStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	var out []string
	err := filepath.WalkDir(s.root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), tmpSuffix) {
			return nil
		}

		rel, err := filepath.Rel(s.root, fp)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ok, _ := path.Match(pattern, rel); ok {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

func (s *FilesystemStore) Close() error {
	return nil
}
