// Package overflow provides a disk-backed profile.OverflowSet for composite
// collectors whose in-memory distinct-tuple set has grown past a
// configured threshold. Grounded on the engine's existing Badger-backed
// data source (pkg/resource/badger in the source tree this module was
// adapted from): one badger.DB per overflowing ColumnSet, opened in a
// scratch subdirectory and dropped when the collector is finalized.
package overflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/kasuganosora/colprofiler/internal/profile"
)

// Store is a profile.OverflowSet backed by an on-disk Badger instance.
// Presence of a key is the only fact tracked; Len reports the running
// distinct count via an in-process counter rather than a key scan.
type Store struct {
	db    *badger.DB
	dir   string
	count int64
}

// Factory builds one Store per distinct ColumnSet label under baseDir, each
// in its own subdirectory so concurrent composite collectors don't share a
// Badger instance. Suitable as Options.OverflowFactory directly.
func Factory(baseDir string) func(cols string) (profile.OverflowSet, error) {
	return func(cols string) (profile.OverflowSet, error) {
		return Open(filepath.Join(baseDir, sanitize(cols)))
	}
}

// Open creates (or reopens) a Badger-backed overflow store at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("overflow: create dir %q: %w", dir, err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("overflow: open badger at %q: %w", dir, err)
	}
	return &Store{db: db, dir: dir}, nil
}

// Add records key if not already present, returning true when it was new.
func (s *Store) Add(key string) (bool, error) {
	isNew := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			isNew = true
			return txn.Set([]byte(key), nil)
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("overflow: add key: %w", err)
	}
	if isNew {
		s.count++
	}
	return isNew, nil
}

// Len returns the number of distinct keys added so far.
func (s *Store) Len() int64 { return s.count }

// Close releases the Badger instance and removes its scratch directory.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("overflow: close badger: %w", err)
	}
	return os.RemoveAll(s.dir)
}

func sanitize(cols string) string {
	out := make([]byte, 0, len(cols))
	for i := 0; i < len(cols); i++ {
		c := cols[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
