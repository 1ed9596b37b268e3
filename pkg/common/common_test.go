package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"6 inch", "6-inch"},
		{"  Matcha   Latte  ", "matcha-latte"},
		{"Plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}

func TestPasswordHash(t *testing.T) {
	hash := HashPassword("bakeshop")
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "bakeshop", hash)
	assert.True(t, CheckPassword(hash, "bakeshop"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestUUIDUnique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		id := UUIDint64()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marker.txt")
	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, FileExists(path))
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "fallback", IfEmptyStr("", "fallback"))
	assert.Equal(t, "value", IfEmptyStr("value", "fallback"))
}
