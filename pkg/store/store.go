// Package store persists completed recording episodes as sequentially
// numbered text files.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starterbench/crankdaq/pkg/record"
)

// ErrUnavailable reports that the storage directory cannot be used. It is a
// boot-time fatal condition: the system must not acquire data it cannot
// persist.
var ErrUnavailable = errors.New("store: storage unavailable")

// Store allocates and writes episode files under a single directory.
type Store struct {
	dir    string
	prefix string
}

// New creates a Store writing files named prefixNNNN.csv under dir.
func New(dir, prefix string) *Store {
	return &Store{dir: dir, prefix: prefix}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Check verifies at boot that the storage directory exists (creating it if
// needed) and is writable, by creating and removing a probe file. Any
// failure wraps ErrUnavailable.
func (s *Store) Check() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrUnavailable, err)
	}

	probe := filepath.Join(s.dir, ".write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("%w: write probe: %v", ErrUnavailable, err)
	}
	f.Close()
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("%w: remove probe: %v", ErrUnavailable, err)
	}
	return nil
}

// Allocate returns the next unused episode file name, probing integer
// suffixes from 0 upward. The scan is O(n) in the number of prior episodes;
// deployments record at most a few hundred episodes, so the linear probe is
// acceptable.
func (s *Store) Allocate() (string, error) {
	for i := 0; ; i++ {
		name := filepath.Join(s.dir, fmt.Sprintf("%s%04d.csv", s.prefix, i))
		_, err := os.Stat(name)
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("store: probe %s: %w", name, err)
		}
	}
}

// Drain writes one completed episode: it allocates the next file name,
// writes the header line followed by exactly len(data) bytes of buffer
// content, and closes the file. It returns the file name written.
//
// The written length is the buffer cursor itself, so the file ends with the
// last complete record and no stray byte.
func (s *Store) Drain(data []byte) (string, error) {
	name, err := s.Allocate()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("store: create %s: %w", name, err)
	}

	if _, err := f.WriteString(record.Header + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("store: write header: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("store: write episode: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("store: close %s: %w", name, err)
	}

	return name, nil
}
