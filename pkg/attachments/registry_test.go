package attachments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterResolveRelease(t *testing.T) {
	r := NewRegistry()
	mod := time.UnixMilli(1700000000000)
	f := NewMemoryFile("notes.txt", "text/plain", mod, []byte("hello"))

	desc, err := r.Register(f)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt-5-1700000000000", desc.ID)
	assert.Equal(t, "text/plain", desc.Type)
	assert.Equal(t, int64(5), desc.Size)

	h, ok := r.Resolve(desc.ID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(h.URL, "blob:solomon/"))
	b, err := h.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	r.Release(desc.ID)
	_, ok = r.Resolve(desc.ID)
	assert.False(t, ok)
	assert.True(t, h.Released())
	_, err = h.Bytes()
	assert.ErrorIs(t, err, ErrReleased)

	// idempotent
	r.Release(desc.ID)
	r.Release("unknown")
}

func TestRegisterSameFileCollapses(t *testing.T) {
	r := NewRegistry()
	mod := time.UnixMilli(1)
	a, err := r.Register(NewMemoryFile("a.png", "image/png", mod, []byte{1, 2}))
	require.NoError(t, err)
	h1, _ := r.Resolve(a.ID)

	b, err := r.Register(NewMemoryFile("a.png", "image/png", mod, []byte{1, 2}))
	require.NoError(t, err)
	h2, _ := r.Resolve(b.ID)

	assert.Equal(t, a, b)
	assert.Same(t, h1, h2)
	assert.Len(t, r.IDs(), 1)
}

func TestReleaseAll(t *testing.T) {
	r := NewRegistry()
	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		d, err := r.Register(NewMemoryFile(name, "text/plain", time.UnixMilli(1), []byte(name)))
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}
	r.ReleaseAll()
	for _, id := range ids {
		_, ok := r.URL(id)
		assert.False(t, ok)
	}
	assert.Empty(t, r.IDs())
}

func TestRegisterTooLarge(t *testing.T) {
	r := NewRegistry(WithMaxSize(4))
	_, err := r.Register(NewMemoryFile("big.bin", "", time.Now(), []byte("12345")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Empty(t, r.IDs())
}

func TestRegisterDefaultsType(t *testing.T) {
	r := NewRegistry()
	d, err := r.Register(NewMemoryFile("blob", "", time.UnixMilli(1), []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", d.Type)
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\nrest"), 0o644))

	f, err := FromPath(p)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", f.Name())
	assert.Equal(t, "image/png", f.Type())

	noExt := filepath.Join(dir, "README")
	require.NoError(t, os.WriteFile(noExt, []byte("plain words"), 0o644))
	f, err = FromPath(noExt)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.Type(), "text/plain"))

	r := NewRegistry()
	d, err := r.Register(f)
	require.NoError(t, err)
	h, ok := r.Resolve(d.ID)
	require.True(t, ok)
	b, _ := h.Bytes()
	assert.Equal(t, "plain words", string(b))

	_, err = FromPath(dir)
	assert.Error(t, err)
	_, err = FromPath(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
