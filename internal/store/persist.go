package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Persister mirrors the aggregate store to durable storage.
type Persister interface {
	Save(sites map[string]*SiteStats) error
	Load() (map[string]*SiteStats, error)
}

// FileStore persists the aggregate store as a single JSON file with a
// ".backup" sibling holding the previous version. The filesystem is
// injected so tests can substitute an in-memory one.
type FileStore struct {
	fs   afero.Fs
	path string
	log  *zap.Logger
}

// NewFileStore creates a file-backed persister at path.
func NewFileStore(fs afero.Fs, path string, log *zap.Logger) *FileStore {
	return &FileStore{fs: fs, path: path, log: log}
}

// BackupPath returns the path of the backup sibling file.
func (f *FileStore) BackupPath() string {
	return f.path + ".backup"
}

// Save writes the full store snapshot to the primary file. The previous
// version is copied to the backup path first (best effort). If the write
// itself fails, the backup is copied back over the primary so the file
// on disk stays consistent, and the error is returned. After a
// successful write the file is re-read and compared against the
// snapshot; a mismatch is logged as an observability signal only.
func (f *FileStore) Save(sites map[string]*SiteStats) error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if exists, _ := afero.Exists(f.fs, f.path); exists {
		if err := f.copyFile(f.path, f.BackupPath()); err != nil {
			f.log.Warn("failed to write backup before save", zap.Error(err))
		}
	}

	data, err := json.MarshalIndent(sites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	if err := afero.WriteFile(f.fs, f.path, data, 0o644); err != nil {
		f.restoreBackup()
		return fmt.Errorf("write stats file: %w", err)
	}

	f.verify(data)
	return nil
}

// Load reads the primary file. A missing, empty, or unparseable primary
// falls back to the backup file; if that also fails the store starts
// empty rather than refusing to boot.
func (f *FileStore) Load() (map[string]*SiteStats, error) {
	sites, err := f.loadFrom(f.path)
	if err == nil {
		return sites, nil
	}
	if !os.IsNotExist(err) {
		f.log.Warn("stats file unreadable, trying backup",
			zap.String("path", f.path), zap.Error(err))
	}

	sites, backupErr := f.loadFrom(f.BackupPath())
	if backupErr == nil {
		f.log.Info("restored aggregate store from backup",
			zap.String("path", f.BackupPath()), zap.Int("sites", len(sites)))
		return sites, nil
	}
	if !os.IsNotExist(backupErr) {
		f.log.Warn("backup file unreadable, starting empty", zap.Error(backupErr))
	}

	return make(map[string]*SiteStats), nil
}

func (f *FileStore) loadFrom(path string) (map[string]*SiteStats, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("stats file %s is empty", path)
	}

	sites := make(map[string]*SiteStats)
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("parse stats file %s: %w", path, err)
	}
	return sites, nil
}

// verify re-reads the just-written file and compares it to the snapshot.
func (f *FileStore) verify(expected []byte) {
	actual, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		f.log.Warn("save verification read failed", zap.Error(err))
		return
	}
	if !bytes.Equal(expected, actual) {
		f.log.Warn("save verification mismatch",
			zap.String("path", f.path),
			zap.Int("expected_bytes", len(expected)),
			zap.Int("actual_bytes", len(actual)))
	}
}

// restoreBackup copies the backup back over the primary after a failed save.
func (f *FileStore) restoreBackup() {
	if exists, _ := afero.Exists(f.fs, f.BackupPath()); !exists {
		return
	}
	if err := f.copyFile(f.BackupPath(), f.path); err != nil {
		f.log.Error("failed to restore backup after save failure", zap.Error(err))
		return
	}
	f.log.Info("restored stats file from backup after save failure",
		zap.String("path", f.path))
}

func (f *FileStore) copyFile(src, dst string) error {
	data, err := afero.ReadFile(f.fs, src)
	if err != nil {
		return err
	}
	return afero.WriteFile(f.fs, dst, data, 0o644)
}
