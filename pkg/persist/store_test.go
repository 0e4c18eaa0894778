package persist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistIdempotence(t *testing.T) {
	s := New()

	v := map[string]any{"a": []any{1, 2, 3}, "b": "hello"}
	s.Put("k", v)

	got, found := s.Get("k")
	assert.True(t, found)
	assert.Equal(t, v, got)

	removed := s.Remove("k")
	assert.True(t, removed)

	_, found = s.Get("k")
	assert.False(t, found)
}

func TestRemoveAbsentKey(t *testing.T) {
	s := New()
	assert.False(t, s.Remove("nope"))
}

func TestPutReplacesExisting(t *testing.T) {
	s := New()
	s.Put("k", "first")
	s.Put("k", "second")
	got, found := s.Get("k")
	assert.True(t, found)
	assert.Equal(t, "second", got)
}

func TestClearAll(t *testing.T) {
	s := New()
	s.Put("a", 1)
	s.Put("b", 2)
	s.ClearAll()
	_, found := s.Get("a")
	assert.False(t, found)
	_, found = s.Get("b")
	assert.False(t, found)
}
