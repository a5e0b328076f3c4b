package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
}

func buildZip(t *testing.T, entries ...entry) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		require.NoError(t, err)
		if e.body != "" {
			_, err = f.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestExtractWritesFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := buildZip(t,
		entry{name: "gw2addon_foo.dll", body: "dll"},
		entry{name: "docs/"},
		entry{name: "docs/readme.txt", body: "readme"},
	)

	written, err := NewZipExtractor(fs).Extract(src, src.Size(), "/game/addons/foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"gw2addon_foo.dll", "docs/readme.txt"}, written)

	data, err := afero.ReadFile(fs, "/game/addons/foo/gw2addon_foo.dll")
	require.NoError(t, err)
	assert.Equal(t, "dll", string(data))

	data, err = afero.ReadFile(fs, "/game/addons/foo/docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "readme", string(data))
}

func TestExtractStripsLeadingFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := buildZip(t,
		entry{name: "foo/"},
		entry{name: "foo/gw2addon_foo.dll", body: "dll"},
		entry{name: "foo/extra/data.bin", body: "bin"},
	)

	written, err := NewZipExtractor(fs).Extract(src, src.Size(), "/game/addons/foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"gw2addon_foo.dll", "extra/data.bin"}, written)

	exists, err := afero.Exists(fs, "/game/addons/foo/gw2addon_foo.dll")
	require.NoError(t, err)
	assert.True(t, exists)

	nested, err := afero.Exists(fs, "/game/addons/foo/foo")
	require.NoError(t, err)
	assert.False(t, nested)
}

func TestExtractKeepsMixedLayout(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := buildZip(t,
		entry{name: "foo/gw2addon_foo.dll", body: "dll"},
		entry{name: "license.txt", body: "mit"},
	)

	written, err := NewZipExtractor(fs).Extract(src, src.Size(), "/game/addons/foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo/gw2addon_foo.dll", "license.txt"}, written)

	exists, err := afero.Exists(fs, "/game/addons/foo/foo/gw2addon_foo.dll")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := buildZip(t, entry{name: "../../evil.dll", body: "x"})

	_, err := NewZipExtractor(fs).Extract(src, src.Size(), "/game/addons/foo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")

	exists, err := afero.Exists(fs, "/game/evil.dll")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExtractRejectsGarbage(t *testing.T) {
	src := bytes.NewReader([]byte("not a zip"))
	_, err := NewZipExtractor(afero.NewMemMapFs()).Extract(src, src.Size(), "/game/addons/foo")
	require.Error(t, err)
}
