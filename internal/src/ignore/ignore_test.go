package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ignore.list")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReloadNamesAndPatterns(t *testing.T) {
	path := writeList(t, `
# periodic noise
anacron.service
logrotate.service

REGEX|apt-daily.*\.service
REGEX|.*\.timer
`)

	l := New(path)
	require.NoError(t, l.Reload())

	names, hasPatterns := l.Size()
	assert.Equal(t, 2, names)
	assert.True(t, hasPatterns)

	assert.True(t, l.Match("anacron.service"))
	assert.True(t, l.Match("logrotate.service"))
	assert.True(t, l.Match("apt-daily-upgrade.service"))
	assert.True(t, l.Match("ua-timer.timer"))
	assert.False(t, l.Match("nginx.service"))
}

func TestReloadMissingFileClears(t *testing.T) {
	path := writeList(t, "something.service\n")
	l := New(path)
	require.NoError(t, l.Reload())
	assert.True(t, l.Match("something.service"))

	require.NoError(t, os.Remove(path))
	require.NoError(t, l.Reload())
	assert.False(t, l.Match("something.service"))
}

func TestPatternsMatchFromStart(t *testing.T) {
	path := writeList(t, "REGEX|apt-daily.*\nREGEX|man-db.*\n")
	l := New(path)
	require.NoError(t, l.Reload())

	assert.True(t, l.Match("apt-daily-upgrade.service"))
	assert.True(t, l.Match("man-db.timer"))
	assert.False(t, l.Match("not-apt-daily.service"), "patterns are prefixes, not substrings")
	assert.False(t, l.Match("fake-man-db.service"))
}

func TestReloadBadPattern(t *testing.T) {
	path := writeList(t, "ok.service\nREGEX|(unclosed\n")
	l := New(path)
	assert.Error(t, l.Reload())
}

func TestMatchEmptyList(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "nope.list"))
	require.NoError(t, l.Reload())
	assert.False(t, l.Match("anything.service"))
}

func TestReloadReplacesEntries(t *testing.T) {
	path := writeList(t, "old.service\n")
	l := New(path)
	require.NoError(t, l.Reload())

	require.NoError(t, os.WriteFile(path, []byte("new.service\n"), 0o644))
	require.NoError(t, l.Reload())

	assert.False(t, l.Match("old.service"))
	assert.True(t, l.Match("new.service"))
}
