package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileStore is the file system surface the Manager needs. Names are base
// names relative to Dir.
type FileStore interface {
	Dir() string
	Path(name string) string
	MkdirAll() error
	Exists(name string) (bool, error)
	Stat(name string) (size int64, err error)
	// ReadDir lists file names. A missing directory returns an error
	// matching fs.ErrNotExist.
	ReadDir() ([]string, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
	// ReadPath reads a file anywhere on disk, such as one the user picked
	// for import.
	ReadPath(path string) ([]byte, error)
}

// OSFileStore keeps backups in a directory on the local disk.
type OSFileStore struct {
	dir string
}

func NewOSFileStore(dir string) *OSFileStore {
	return &OSFileStore{dir: dir}
}

func (s *OSFileStore) Dir() string { return s.dir }

func (s *OSFileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *OSFileStore) MkdirAll() error {
	return os.MkdirAll(s.dir, 0700)
}

func (s *OSFileStore) Exists(name string) (bool, error) {
	_, err := os.Stat(s.Path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *OSFileStore) Stat(name string) (int64, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *OSFileStore) ReadDir() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *OSFileStore) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

// WriteFile writes through a temporary file and renames it into place so a
// crash never leaves a half-written backup behind.
func (s *OSFileStore) WriteFile(name string, data []byte) error {
	path := s.Path(name)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			return fmt.Errorf("%w (cleanup of %s also failed: %v)", err, tempPath, removeErr)
		}
		return err
	}
	return nil
}

func (s *OSFileStore) Remove(name string) error {
	return os.Remove(s.Path(name))
}

func (s *OSFileStore) ReadPath(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}
