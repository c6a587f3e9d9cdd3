package env

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	o := NewOS()
	data, err := o.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = o.ReadFile(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, CodeNotExist, CodeOf(err))
}

func TestOS_ListDirectorySplitsAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"zeta", "alpha"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	for _, f := range []string{"b.go", "a.go", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
	}

	listing, err := NewOS().ListDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, listing.Dirs)
	assert.Equal(t, []string{"a.go", "b.go", "c.md"}, listing.Files)
}

func TestOS_Clipboard(t *testing.T) {
	o := NewOS()
	assert.Equal(t, "", o.ClipboardText())
	o.SetClipboardText("copied")
	assert.Equal(t, "copied", o.ClipboardText())
}

func TestOS_NowUsesClock(t *testing.T) {
	fixed := time.Unix(1700000000, 0)
	o := &OS{clock: func() time.Time { return fixed }}
	assert.Equal(t, fixed, o.Now())
}

func TestCodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		code Code
		is   error
	}{
		{"not exist", CodeNotExist, fs.ErrNotExist},
		{"permission", CodePermission, fs.ErrPermission},
		{"is dir", CodeIsDir, syscall.EISDIR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ErrorFor(tt.code, "open", "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is))
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}

	assert.NoError(t, ErrorFor(CodeOK, "open", "x"))
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeOther, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeOther, CodeOf(ErrorFor(CodeOther, "open", "x")))
}
