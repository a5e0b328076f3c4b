package addons

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupKeepsNewest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/addons/foo/gw2addon_foo.dll", []byte("v1"), 0644))

	bm := NewBackupManager(fs, "/data", "/game")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	bm.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	for i := 0; i < MaxBackupsPerAddon+2; i++ {
		_, err := bm.CreateBackup("foo", []string{"/game/addons/foo"})
		require.NoError(t, err)
	}

	backups, err := bm.ListBackups("foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"20240501-120500", "20240501-120400", "20240501-120300"}, backups)

	latest, err := bm.GetLatestBackup("foo")
	require.NoError(t, err)
	assert.Equal(t, "20240501-120500", latest)
}

func TestBackupSameSecondGetsSuffix(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/addons/foo/gw2addon_foo.dll", []byte("v1"), 0644))

	bm := NewBackupManager(fs, "/data", "/game")
	bm.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	first, err := bm.CreateBackup("foo", []string{"/game/addons/foo/gw2addon_foo.dll"})
	require.NoError(t, err)
	second, err := bm.CreateBackup("foo", []string{"/game/addons/foo/gw2addon_foo.dll"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "/data/backups/foo/20240501-120000-1", second)
}

func TestBackupRestore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/addons/foo/gw2addon_foo.dll", []byte("v1"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/game/addons/foo/config/settings.json", []byte("{}"), 0644))

	bm := NewBackupManager(fs, "/data", "/game")
	_, err := bm.CreateBackup("foo", []string{"/game/addons/foo"})
	require.NoError(t, err)

	require.NoError(t, fs.RemoveAll("/game/addons/foo"))

	restored, err := bm.RestoreBackup("foo", "")
	require.NoError(t, err)
	assert.NotEmpty(t, restored)

	data, err := afero.ReadFile(fs, "/game/addons/foo/gw2addon_foo.dll")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	exists, err := afero.Exists(fs, "/game/addons/foo/config/settings.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBackupErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	bm := NewBackupManager(fs, "/data", "/game")

	_, err := bm.CreateBackup("foo", nil)
	assert.Error(t, err)

	_, err = bm.CreateBackup("foo", []string{"/etc/passwd"})
	assert.Error(t, err)

	_, err = bm.RestoreBackup("foo", "")
	assert.Error(t, err)

	_, err = bm.RestoreBackup("foo", "20240101-000000")
	assert.Error(t, err)

	backups, err := bm.ListBackups("foo")
	require.NoError(t, err)
	assert.Empty(t, backups)
}
