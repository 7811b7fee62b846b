package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
	"github.com/nmfs-opensci/rocketgate/internal/manifest"
)

const sampleCondaEnv = `name: geospatial
channels:
  - conda-forge
dependencies:
  - python=3.11
  - gdal>=3.8
  - xarray
  - rioxarray~=0.15
  - pip
  - pip:
    - earthaccess>=0.9
    - coiled
`

func TestParseCondaEnvSource(t *testing.T) {
	t.Parallel()

	t.Run("strips version specs and includes pip block", func(t *testing.T) {
		t.Parallel()

		src, err := manifest.ParseCondaEnvSource("env-geospatial.yml", "python", []byte(sampleCondaEnv))
		require.NoError(t, err)

		assert.Equal(t, "env-geospatial.yml", src.Name)
		assert.Equal(t, "python", src.Domain)
		assert.Equal(t, domain.EcosystemConda, src.Ecosystem)
		assert.Equal(t, []string{"python", "gdal", "xarray", "rioxarray", "pip", "earthaccess", "coiled"}, src.Packages)
	})

	t.Run("empty dependency list yields empty source", func(t *testing.T) {
		t.Parallel()

		src, err := manifest.ParseCondaEnvSource("env-empty.yml", "python", []byte("name: empty\n"))
		require.NoError(t, err)
		assert.Empty(t, src.Packages)
	})

	t.Run("duplicate names keep first position", func(t *testing.T) {
		t.Parallel()

		data := "dependencies:\n  - dask\n  - numpy\n  - dask=2024.1\n"
		src, err := manifest.ParseCondaEnvSource("env-dup.yml", "python", []byte(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"dask", "numpy"}, src.Packages)
	})

	t.Run("invalid yaml returns parse error", func(t *testing.T) {
		t.Parallel()

		_, err := manifest.ParseCondaEnvSource("env-bad.yml", "python", []byte("dependencies: [unclosed"))
		require.Error(t, err)
		assert.ErrorIs(t, err, rocketerrors.ErrSourceParse)
	})
}

const sampleInstallR = `# Custom R packages for the image
list.of.packages <- c("quarto", "reticulate",
                      "terra", "ncdf4")
new.packages <- list.of.packages[!(list.of.packages %in% installed.packages()[,"Package"])]
if(length(new.packages)) install.packages(new.packages)

remotes::install_github("hvillalo/echogram", upgrade = "never")
`

func TestParseRInstallSource(t *testing.T) {
	t.Parallel()

	t.Run("extracts vector names and github repos", func(t *testing.T) {
		t.Parallel()

		src, err := manifest.ParseRInstallSource("install.R", "r", []byte(sampleInstallR))
		require.NoError(t, err)

		assert.Equal(t, domain.EcosystemCRAN, src.Ecosystem)
		assert.Equal(t, []string{"quarto", "reticulate", "terra", "ncdf4", "echogram"}, src.Packages)
	})

	t.Run("skips quoted urls and paths", func(t *testing.T) {
		t.Parallel()

		data := `pkgs <- c("sf", "https://example.org/pkg.tar.gz", "/opt/local/thing")`
		src, err := manifest.ParseRInstallSource("install.R", "r", []byte(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"sf"}, src.Packages)
	})
}

func TestParseSource_UnknownEcosystem(t *testing.T) {
	t.Parallel()

	_, err := manifest.ParseSource(domain.Ecosystem("npm"), "package.json", "js", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, rocketerrors.ErrInvalidEcosystem)
}

func TestLoadSources(t *testing.T) {
	t.Parallel()

	t.Run("loads matched files in glob order", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, dir, "env-a.yml", "dependencies:\n  - numpy\n")
		writeFile(t, dir, "env-b.yml", "dependencies:\n  - scipy\n")

		sources, err := manifest.LoadSources(domain.EcosystemConda, "python", []string{dir + "/env-*.yml"})
		require.NoError(t, err)
		require.Len(t, sources, 2)
		assert.Equal(t, "env-a.yml", sources[0].Name)
		assert.Equal(t, []string{"numpy"}, sources[0].Packages)
		assert.Equal(t, "env-b.yml", sources[1].Name)
	})

	t.Run("pattern matching nothing is an error", func(t *testing.T) {
		t.Parallel()

		_, err := manifest.LoadSources(domain.EcosystemConda, "python", []string{t.TempDir() + "/env-*.yml"})
		require.Error(t, err)
		assert.ErrorIs(t, err, rocketerrors.ErrSourceNotFound)
	})
}
