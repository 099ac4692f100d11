// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package store keeps a named library of turtle programs in LevelDB.
package store

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/probechain/go-turtle/log"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to
	// leveldb read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the
	// open database files.
	minHandles = 16

	maxNameLength = 128
)

// programPrefix namespaces program sources within the database.
var programPrefix = []byte("p/")

var (
	// ErrNotFound is returned when no program is stored under a name.
	ErrNotFound = errors.New("program not found")

	// ErrInvalidName is returned for names that are empty, too long or
	// contain whitespace or control characters.
	ErrInvalidName = errors.New("invalid program name")
)

// Entry describes one stored program.
type Entry struct {
	Name string
	Size int
}

// Store is a persistent program library.
type Store struct {
	fn  string
	db  *leveldb.DB
	log log.Logger
}

// Open opens or creates the library at path with default cache settings.
func Open(path string) (*Store, error) {
	return New(path, minCache, minHandles)
}

// New opens the library at file with the given cache size in megabytes and
// number of file handles.
func New(file string, cache int, handles int) (*Store, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger := log.New("database", file)
	logger.Info("Opening program store", "cache", cache, "handles", handles)

	db, err := leveldb.OpenFile(file, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		logger.Warn("Program store corrupted, recovering")
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Store{fn: file, db: db, log: logger}, nil
}

// NewMemory returns a library backed by memory only.
func NewMemory() *Store {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err) // memory storage cannot fail to open
	}
	return &Store{fn: "memory", db: db, log: log.New("database", "memory")}
}

// Path returns the database directory.
func (s *Store) Path() string { return s.fn }

func (s *Store) Close() error {
	return s.db.Close()
}

// ValidName reports whether name can be used as a program name.
func ValidName(name string) error {
	if name == "" || len(name) > maxNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.IndexFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func key(name string) []byte {
	return append(append([]byte{}, programPrefix...), name...)
}

// Put stores src under name, replacing any previous program.
func (s *Store) Put(name, src string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := s.db.Put(key(name), []byte(src), nil); err != nil {
		return err
	}
	s.log.Debug("Stored program", "name", name, "size", len(src))
	return nil
}

// Get returns the program stored under name.
func (s *Store) Get(name string) (string, error) {
	if err := ValidName(name); err != nil {
		return "", err
	}
	dat, err := s.db.Get(key(name), nil)
	if err == leveldb.ErrNotFound {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return "", err
	}
	return string(dat), nil
}

// Has reports whether a program is stored under name.
func (s *Store) Has(name string) (bool, error) {
	if err := ValidName(name); err != nil {
		return false, err
	}
	return s.db.Has(key(name), nil)
}

// Delete removes the program stored under name.
func (s *Store) Delete(name string) error {
	ok, err := s.Has(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.db.Delete(key(name), nil)
}

// List returns every stored program in name order.
func (s *Store) List() ([]Entry, error) {
	it := s.db.NewIterator(util.BytesPrefix(programPrefix), nil)
	defer it.Release()

	var entries []Entry
	for it.Next() {
		entries = append(entries, Entry{
			Name: string(it.Key()[len(programPrefix):]),
			Size: len(it.Value()),
		})
	}
	return entries, it.Error()
}
