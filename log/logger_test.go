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

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLvlFilter(t *testing.T) {
	var got []*Record
	l := New("component", "test")
	l.SetHandler(LvlFilterHandler(LvlInfo, FuncHandler(func(r *Record) error {
		got = append(got, r)
		return nil
	})))

	l.Debug("hidden")
	l.Info("shown", "n", 1)
	l.Warn("also shown")

	require.Len(t, got, 2)
	assert.Equal(t, "shown", got[0].Msg)
	assert.Equal(t, []interface{}{"component", "test", "n", 1}, got[0].Ctx)
	assert.Equal(t, LvlWarn, got[1].Lvl)
}

func TestOddContextNormalized(t *testing.T) {
	var rec *Record
	l := New()
	l.SetHandler(FuncHandler(func(r *Record) error { rec = r; return nil }))
	l.Info("odd", "lonely")

	require.NotNil(t, rec)
	assert.Len(t, rec.Ctx, 4)
	assert.Equal(t, errorKey, rec.Ctx[2])
}

func TestLogfmtFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetHandler(StreamHandler(&buf, LogfmtFormat()))
	l.Info("program done", "segments", 4, "name", "two words", "heading", 90.5)

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, `msg="program done"`)
	assert.Contains(t, out, "segments=4")
	assert.Contains(t, out, `name="two words"`)
	assert.Contains(t, out, "heading=90.500")
	assert.Contains(t, out, "caller=logger_test.go:")
}

func TestTerminalFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetHandler(StreamHandler(&buf, TerminalFormat(false)))
	l.Warn("budget", "steps", 10)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "WARN ["))
	assert.Contains(t, out, "steps=10")
}

func TestLvlFromString(t *testing.T) {
	lvl, err := LvlFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, LvlTrace, lvl)

	_, err = LvlFromString("loud")
	assert.Error(t, err)
}
