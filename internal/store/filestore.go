// Package store provides durable index + per-record file persistence for a
// record family. Each family owns one directory holding an index.json with
// lightweight metadata for every record and a records/ subdirectory with one
// JSON file per record payload.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists one record family under dir. M is the index metadata
// type, R the full record payload type.
type FileStore[M any, R any] struct {
	dir string
}

// NewFileStore creates the family directory (and records/ below it) if needed.
func NewFileStore[M any, R any](dir string) (*FileStore[M, R], error) {
	if err := os.MkdirAll(filepath.Join(dir, "records"), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	return &FileStore[M, R]{dir: dir}, nil
}

// Dir returns the family's root directory.
func (s *FileStore[M, R]) Dir() string { return s.dir }

// IndexPath returns the path of the family's index file.
func (s *FileStore[M, R]) IndexPath() string {
	return filepath.Join(s.dir, "index.json")
}

func (s *FileStore[M, R]) recordPath(id string) string {
	return filepath.Join(s.dir, "records", sanitizeID(id)+".json")
}

// LoadIndex reads the index. A missing index reads as empty, not as an error.
func (s *FileStore[M, R]) LoadIndex() ([]M, error) {
	data, err := os.ReadFile(s.IndexPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read index: %w", err)
	}
	var out []M
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("filestore: decode index: %w", err)
	}
	return out, nil
}

// SaveIndex atomically replaces the index with entries.
func (s *FileStore[M, R]) SaveIndex(entries []M) error {
	if entries == nil {
		entries = []M{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode index: %w", err)
	}
	return writeFileAtomic(s.IndexPath(), data)
}

// LoadRecord reads one record payload. The second return value reports
// whether the record file exists: an index entry whose record file is
// missing (for example after a partial write) loads as absent.
func (s *FileStore[M, R]) LoadRecord(id string) (R, bool, error) {
	var rec R
	data, err := os.ReadFile(s.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("filestore: read record %s: %w", id, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, fmt.Errorf("filestore: decode record %s: %w", id, err)
	}
	return rec, true, nil
}

// SaveRecord atomically writes one record payload.
func (s *FileStore[M, R]) SaveRecord(id string, rec R) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode record %s: %w", id, err)
	}
	return writeFileAtomic(s.recordPath(id), data)
}

// DeleteRecord removes one record file. Deleting an absent record is a no-op.
func (s *FileStore[M, R]) DeleteRecord(id string) error {
	err := os.Remove(s.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("filestore: delete record %s: %w", id, err)
	}
	return nil
}

// ListRecordIDs returns the ids of every record file currently on disk.
func (s *FileStore[M, R]) ListRecordIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "records"))
	if err != nil {
		return nil, fmt.Errorf("filestore: list records: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// writeFileAtomic writes data via a temp file in the same directory followed
// by a rename, so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: rename: %w", err)
	}
	return nil
}

// sanitizeID strips path separators so a hostile or corrupted id cannot
// escape the records directory.
func sanitizeID(id string) string {
	id = strings.ReplaceAll(id, string(os.PathSeparator), "_")
	return strings.ReplaceAll(id, "..", "_")
}
