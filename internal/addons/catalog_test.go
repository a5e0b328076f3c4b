package addons_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gw2ctl/internal/addons"
	"github.com/bnema/gw2ctl/internal/catalog"
)

const radialManifest = `{
  "addons": {
    "arcdps": {"addon_name": "ArcDPS", "version_id": "1", "install_mode": "binary", "download_type": "dll",
               "download_url": "https://example.com/gw2addon_arcdps.dll"},
    "radial": {"addon_name": "Radial", "version_id": "1", "install_mode": "arc", "download_type": "archive",
               "download_url": "https://example.com/radial.zip", "plugin_name": "d3d9_arcdps_radial",
               "requires": ["arcdps"]}
  },
  "loader": {"version_id": "v1", "download_url": "https://example.com/loader.zip", "wrapper_nickname": "d3d9_wrapper"}
}`

// The merged catalog injects the loader requirement by display name, so the
// manager has to resolve it through the catalog rather than a fixture.
func TestInstallAndDeleteWithMergedCatalog(t *testing.T) {
	manifest, err := catalog.ParseManifest([]byte(radialManifest))
	require.NoError(t, err)

	c := catalog.New(nil, nil)
	c.Merge(manifest)

	radialEntry, ok := c.Lookup("radial")
	require.True(t, ok)
	assert.Contains(t, radialEntry.Requires, catalog.LoaderName)

	h := newHarness(t, addons.Options{Catalog: c})

	require.NoError(t, h.manager.Install(context.Background(), []addons.Addon{radialEntry}))
	assert.Equal(t, []string{loader.DownloadURL, arcdps.DownloadURL, radial.DownloadURL}, h.transport.downloads)
	assert.Equal(t, []string{catalog.LoaderName, "ArcDPS", "Radial"}, h.phase(addons.PhaseDone))
	assert.True(t, h.exists(t, "/game/addons/arcdps/gw2addon_arcdps.dll"))
	assert.True(t, h.exists(t, "/game/addons/arcdps/d3d9_arcdps_radial.dll"))

	arcdpsEntry, ok := c.Lookup("ArcDPS")
	require.True(t, ok)
	h.events = nil

	require.NoError(t, h.manager.Delete(context.Background(), []addons.Addon{arcdpsEntry}))
	assert.Equal(t, []string{"Radial", "ArcDPS"}, h.phase(addons.PhaseDone))
	assert.Equal(t, addons.StateAbsent, h.state(t, radialEntry))
	assert.Equal(t, addons.StateAbsent, h.state(t, arcdpsEntry))

	loaderEntry, ok := c.Lookup(catalog.LoaderName)
	require.True(t, ok)
	assert.Equal(t, addons.StateEnabled, h.state(t, loaderEntry))
}
