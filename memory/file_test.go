package memory

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestFileLogMissingFileIsEmpty(t *testing.T) {
	log := NewFileLog(filepath.Join(t.TempDir(), "nope.log"))
	got, err := log.Recent(context.Background(), 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(got), 0)
}

func TestFileLogAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	log := NewFileLog(filepath.Join(t.TempDir(), "recent_posts.log"))

	for i := 1; i <= 12; i++ {
		assert.Equal(t, log.Append(ctx, "post "+strconv.Itoa(i)+"."), nil)
	}

	got, err := log.Recent(ctx, 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(got), 10)
	assert.Equal(t, got[0], "post 3.")
	assert.Equal(t, got[9], "post 12.")
}

func TestFileLogFlattensMultilinePosts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recent_posts.log")
	log := NewFileLog(path)

	assert.Equal(t, log.Append(ctx, "Line one.\n\nLine two."), nil)
	assert.Equal(t, log.Append(ctx, "   "), nil)

	data, err := os.ReadFile(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, string(data), "Line one. Line two.\n")
}

func TestFileLogSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent_posts.log")
	if err := os.WriteFile(path, []byte("a.\n\n  \nb.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileLog(path).Recent(context.Background(), 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, got, []string{"a.", "b."})
}

func TestLastN(t *testing.T) {
	assert.Equal(t, len(lastN([]string{"a", "b"}, 0)), 0)
	assert.Equal(t, lastN([]string{"a", "b", "c"}, 2), []string{"b", "c"})
	assert.Equal(t, lastN([]string{"a"}, 5), []string{"a"})
}
