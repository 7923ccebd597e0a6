package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// markerName is the file written next to the index once the legacy blob has
// been migrated. Its presence means migration never runs again, so the
// format decision is made exactly once rather than re-detected on every load.
const markerName = ".migrated"

// migrationVersion is recorded in the marker file.
const migrationVersion = 1

type migrationMarker struct {
	Version  int `json:"version"`
	Migrated int `json:"migrated"`
}

// Migrated reports whether the one-time legacy migration has already run
// for this family.
func (s *FileStore[M, R]) Migrated() bool {
	_, err := os.Stat(filepath.Join(s.dir, markerName))
	return err == nil
}

// MigrateLegacyBlob performs the one-time split of a legacy single-blob file
// (a JSON array of full records) into per-record files plus a regenerated
// index. idOf and metaOf project a record to its id and index metadata.
// progress, if non-nil, is called after each migrated record.
//
// Returns the number of records migrated. Once the marker file exists the
// call is a no-op, including when the legacy file never existed.
func (s *FileStore[M, R]) MigrateLegacyBlob(legacyPath string, idOf func(R) string, metaOf func(R) M, progress func(done, total int)) (int, error) {
	if s.Migrated() {
		return 0, nil
	}

	data, err := os.ReadFile(legacyPath)
	if errors.Is(err, fs.ErrNotExist) {
		// Fresh install: nothing to migrate, but record that so the check
		// is not repeated on every startup.
		return 0, s.writeMarker(0)
	}
	if err != nil {
		return 0, fmt.Errorf("filestore: read legacy blob: %w", err)
	}

	var records []R
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("filestore: decode legacy blob: %w", err)
	}

	metas := make([]M, 0, len(records))
	for i, rec := range records {
		id := idOf(rec)
		if id == "" {
			continue
		}
		if err := s.SaveRecord(id, rec); err != nil {
			return i, fmt.Errorf("filestore: migrate record %s: %w", id, err)
		}
		metas = append(metas, metaOf(rec))
		if progress != nil {
			progress(i+1, len(records))
		}
	}
	if err := s.SaveIndex(metas); err != nil {
		return len(metas), fmt.Errorf("filestore: migrate index: %w", err)
	}
	if err := s.writeMarker(len(metas)); err != nil {
		return len(metas), err
	}

	// The blob is kept as <name>.bak rather than deleted, so a failed
	// migration can be retried by removing the marker.
	_ = os.Rename(legacyPath, legacyPath+".bak")

	return len(metas), nil
}

func (s *FileStore[M, R]) writeMarker(migrated int) error {
	data, err := json.Marshal(migrationMarker{Version: migrationVersion, Migrated: migrated})
	if err != nil {
		return fmt.Errorf("filestore: encode marker: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, markerName), data)
}
