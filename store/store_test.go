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

package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/probechain/go-turtle/log"
)

func newTestStore(t *testing.T) *Store {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := &Store{fn: t.Name(), db: db, log: log.New("database", t.Name())}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("square", "repeat 4 [ fd 10 rt 90 ]"))

	src, err := s.Get("square")
	require.NoError(t, err)
	assert.Equal(t, "repeat 4 [ fd 10 rt 90 ]", src)

	require.NoError(t, s.Put("square", "fd 1"))
	src, err = s.Get("square")
	require.NoError(t, err)
	assert.Equal(t, "fd 1", src)
}

func TestNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete("missing"), ErrNotFound)

	ok, err := s.Has("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("a", "fd 1"))
	require.NoError(t, s.Delete("a"))
	_, err := s.Get("a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.Put("star", "repeat 5 [ fd 100 rt 144 ]"))
	require.NoError(t, s.Put("dot", "fd 1"))
	require.NoError(t, s.Put("b", ""))

	entries, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"b", 0}, {"dot", 4}, {"star", 26}}, entries)
}

func TestInvalidNames(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "has space", "tab\t", strings.Repeat("x", maxNameLength+1)} {
		assert.ErrorIs(t, s.Put(name, "fd 1"), ErrInvalidName, "%q", name)
		_, err := s.Get(name)
		assert.ErrorIs(t, err, ErrInvalidName, "%q", name)
	}
	assert.NoError(t, ValidName("spiral-2.logo"))
}

func TestPersistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "programs")
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("tree", "to tree :s end"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, dir, s.Path())
	src, err := s.Get("tree")
	require.NoError(t, err)
	assert.Equal(t, "to tree :s end", src)
}
