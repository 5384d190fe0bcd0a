package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the store to path as a JSON record. The record lands in a
// temporary file in the same directory first and is renamed into place, so a
// crash mid-write leaves the previous file intact. On success the snapshot
// generation is marked clean.
func Save(path string, s *Store) error {
	rec, gen := s.Snapshot()
	data, err := EncodeRecord(rec, FormatJSON)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.MarkClean(gen)
	return nil
}

// Load reads a JSON record from path and builds a store from it.
func Load(path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := DecodeRecord(data, FormatJSON)
	if err != nil {
		return nil, err
	}
	return FromRecord(rec, opts...)
}
