package leavetype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day_off_type.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "a1", "type": "Urlaub"},
		{"id": "b2", "type": "Krankheit"}
	]`), 0644))

	c, err := File(path).Load()
	require.NoError(t, err)

	got, ok := c.Category("b2")
	assert.True(t, ok)
	assert.Equal(t, Illness, got)

	_, ok = c.Category("zz")
	assert.False(t, ok)

	assert.True(t, c.Is("a1", Set(Vacation, "Gleitzeit")))
	assert.False(t, c.Is("b2", Set(Vacation)))
}

func TestFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.json":   `[]`,
		"broken.json":  `[{"id": "a1"`,
		"missing.json": "",
		"noid.json":    `[{"type": "Urlaub"}]`,
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if name != "missing.json" {
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		}
		_, err := File(path).Load()
		assert.ErrorIs(t, err, ErrMalformedReference, name)
	}
}

func TestStatic(t *testing.T) {
	c, err := Static{"x": Vacation}.Load()
	require.NoError(t, err)
	got, _ := c.Category("x")
	assert.Equal(t, Vacation, got)

	_, err = Static{}.Load()
	assert.ErrorIs(t, err, ErrMalformedReference)
}
