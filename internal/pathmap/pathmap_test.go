package pathmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(pairs ...string) []hostconfig.PathMapEntry {
	var out []hostconfig.PathMapEntry
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, hostconfig.PathMapEntry{LocalPrefix: pairs[i], RemotePrefix: pairs[i+1]})
	}
	return out
}

func TestMap_LongestPrefixWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	ab := filepath.Join(a, "b")
	require.NoError(t, os.MkdirAll(ab, 0755))

	m := New(entries(a, "/x", ab, "/y"), nil)

	assert.Equal(t, "/y/c.txt", m.Map(filepath.Join(ab, "c.txt")))
	assert.Equal(t, "/x/d.txt", m.Map(filepath.Join(a, "d.txt")))
}

func TestIsShared_PathMapWinsOverShared(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	ab := filepath.Join(a, "b")
	require.NoError(t, os.MkdirAll(ab, 0755))

	m := New(entries(ab, "/y"), []string{a})

	assert.False(t, m.IsShared(filepath.Join(ab, "foo")))
	assert.True(t, m.IsShared(filepath.Join(a, "foo")))
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	require.NoError(t, os.MkdirAll(a, 0755))

	m := New(entries(a, "/remote/a"), nil)
	local := filepath.Join(a, "file.txt")

	mapped := m.Map(local)
	assert.Equal(t, local, m.ReverseMap(mapped))
}

func TestMap_SeparatorNormalization(t *testing.T) {
	m := New(entries(`C:\work`, "/work/"), nil)
	// Windows-style source paths are normalized to forward slashes
	// before the remote prefix is substituted in.
	got := m.Map(`C:\work\x`)
	assert.Contains(t, got, "/work/x")
}

func TestMap_NamedPathPassesThrough(t *testing.T) {
	m := New(nil, nil)
	assert.Equal(t, "#results", m.Map("#results"))
}
