// Package artifact manages generated report files on disk.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	filePrefix    = "PARTE_TRABAJO_"
	fileExt       = ".xlsx"
	maxNameRunes  = 64
	maxDirIDRunes = 32
)

// ErrOutsideStore is returned for paths that do not belong to the store.
var ErrOutsideStore = errors.New("path outside artifact store")

// Store keeps one directory per session below a root directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName builds the report file name for a worker and day, e.g.
// PARTE_TRABAJO_Ana_Perez_17102026.xlsx.
func FileName(workerName string, day time.Time) string {
	name := sanitize(strings.ReplaceAll(strings.TrimSpace(workerName), " ", "_"), maxNameRunes)
	if name == "" {
		name = "SIN_NOMBRE"
	}
	return filePrefix + name + "_" + day.Format("02012006") + fileExt
}

// Path returns where the report of sessionID should live.
func (s *Store) Path(sessionID, workerName string, day time.Time) string {
	return filepath.Join(s.sessionDir(sessionID), FileName(workerName, day))
}

// WriteAtomic writes through a temporary file in the target directory and
// renames it into place, so a failed write leaves nothing at path.
func (s *Store) WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	if err := s.contains(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming artifact: %w", err)
	}
	return nil
}

// Open opens a stored artifact for reading.
func (s *Store) Open(path string) (*os.File, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes everything stored for sessionID. A missing directory is not
// an error.
func (s *Store) Remove(sessionID string) error {
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("removing artifacts for %s: %w", sessionID, err)
	}
	return nil
}

// sessionDir maps a client-chosen session id to a safe directory name. The
// hash suffix keeps ids that sanitize to the same text apart.
func (s *Store) sessionDir(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	name := sanitize(sessionID, maxDirIDRunes)
	if name == "" {
		name = "session"
	}
	return filepath.Join(s.dir, name+"-"+hex.EncodeToString(sum[:4]))
}

func (s *Store) contains(path string) error {
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return fmt.Errorf("resolving artifact root: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving artifact path: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", ErrOutsideStore, path)
	}
	return nil
}

// sanitize keeps letters, digits, '-', '_' and '.', drops everything else and
// caps the result at max runes. Leading dots are removed.
func sanitize(s string, max int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n >= max {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			n++
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
