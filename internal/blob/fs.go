package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FSStore implements Store on the local filesystem. Keys map to relative
// file paths under the root; a sidecar file (key + ".meta") carries content
// type and user metadata.
type FSStore struct {
	root string
}

// Compile-time contract assertion.
var _ Store = (*FSStore)(nil)

type fsMeta struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewFSStore returns a filesystem-backed blob store rooted at path,
// creating the root if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = "./exportdata"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

// Driver returns the blob driver identifier.
func (s *FSStore) Driver() Driver { return DriverFilesystem }

// sanitizeKey forbids traversal and absolute paths so keys cannot escape the
// root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return clean, nil
}

func (s *FSStore) paths(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(k))
	metaPath = dataPath + ".meta"
	return dataPath, metaPath, nil
}

// Put stores a new blob; errors if the key exists.
func (s *FSStore) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return Info{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o750); err != nil {
		return Info{}, err
	}
	f, err := os.OpenFile(dataPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return Info{}, err
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(dataPath)
		return Info{}, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(dataPath)
		return Info{}, closeErr
	}
	now := time.Now().UTC()
	meta := fsMeta{
		ContentType: opts.ContentType,
		Metadata:    cloneMetadata(opts.Metadata),
		Size:        size,
		CreatedAt:   now,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return Info{}, err
	}
	if err := os.WriteFile(metaPath, raw, 0o600); err != nil {
		return Info{}, err
	}
	return Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: now,
	}, nil
}

// Get returns blob metadata and a reader over its content.
func (s *FSStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, err := s.stat(key)
	if err != nil {
		return Info{}, nil, err
	}
	dataPath, _, err := s.paths(key)
	if err != nil {
		return Info{}, nil, err
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return Info{}, nil, err
	}
	return info, f, nil
}

// Delete removes the blob and its sidecar, returning whether it existed.
func (s *FSStore) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List returns all blobs under prefix in key order.
func (s *FSStore) List(_ context.Context, prefix string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".meta") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.stat(key)
		if err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is unsupported for the filesystem driver.
func (s *FSStore) PresignURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrUnsupported
}

func (s *FSStore) stat(key string) (Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(dataPath)
	if err != nil {
		return Info{}, fmt.Errorf("blob %s not found", key)
	}
	info := Info{Key: key, Size: fi.Size(), LastModified: fi.ModTime().UTC()}
	if raw, err := os.ReadFile(metaPath); err == nil {
		var meta fsMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			info.ContentType = meta.ContentType
			info.Metadata = meta.Metadata
		}
	}
	return info, nil
}
