package memory

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/assert/v2"
)

func newTestRedisLog(t *testing.T) (*RedisLog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisLog(context.Background(), "redis://"+mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewRedisLog: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLogRecentOldestFirst(t *testing.T) {
	l, _ := newTestRedisLog(t)
	ctx := context.Background()

	for _, s := range []string{"one.", "two.", "three."} {
		assert.Equal(t, l.Append(ctx, s), nil)
	}

	got, err := l.Recent(ctx, 2)
	assert.Equal(t, err, nil)
	assert.Equal(t, got, []string{"two.", "three."})

	got, err = l.Recent(ctx, 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, got, []string{"one.", "two.", "three."})
}

func TestRedisLogAppendCapsList(t *testing.T) {
	l, mr := newTestRedisLog(t)
	l.limit = 3
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		assert.Equal(t, l.Append(ctx, "post "+strconv.Itoa(i)+"."), nil)
	}

	stored, err := mr.List(DefaultRedisKey)
	assert.Equal(t, err, nil)
	assert.Equal(t, stored, []string{"post 5.", "post 4.", "post 3."})

	got, err := l.Recent(ctx, 10)
	assert.Equal(t, err, nil)
	assert.Equal(t, got, []string{"post 3.", "post 4.", "post 5."})
}

func TestRedisLogAppendFlattensAndSkipsEmpty(t *testing.T) {
	l, mr := newTestRedisLog(t)
	ctx := context.Background()

	assert.Equal(t, l.Append(ctx, "line one.\n\nline two."), nil)
	assert.Equal(t, l.Append(ctx, "  \n "), nil)

	stored, err := mr.List(DefaultRedisKey)
	assert.Equal(t, err, nil)
	assert.Equal(t, stored, []string{"line one. line two."})
}

func TestRedisLogRecentEmpty(t *testing.T) {
	l, _ := newTestRedisLog(t)

	got, err := l.Recent(context.Background(), 5)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(got), 0)

	got, err = l.Recent(context.Background(), 0)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(got), 0)
}

func TestNewRedisLogBareAddress(t *testing.T) {
	mr := miniredis.RunT(t)
	l, err := NewRedisLog(context.Background(), mr.Addr(), "custom:key")
	assert.Equal(t, err, nil)
	defer l.Close()

	assert.Equal(t, l.Append(context.Background(), "hello."), nil)
	stored, err := mr.List("custom:key")
	assert.Equal(t, err, nil)
	assert.Equal(t, stored, []string{"hello."})
}

func TestNewRedisLogUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisLog(context.Background(), "redis://"+addr, "")
	assert.NotEqual(t, err, nil)
}
