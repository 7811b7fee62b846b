package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
)

// writeFile writes a test fixture file into dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// condaPkg builds a registry-installed conda snapshot entry.
func condaPkg(name, version string) domain.InstalledPackage {
	return domain.InstalledPackage{
		Name:      name,
		Version:   version,
		Ecosystem: domain.EcosystemConda,
		Origin:    domain.RegistryOrigin("https://conda.anaconda.org/conda-forge"),
	}
}

// cranPkg builds a registry-installed R snapshot entry.
func cranPkg(name, version string) domain.InstalledPackage {
	return domain.InstalledPackage{
		Name:      name,
		Version:   version,
		Ecosystem: domain.EcosystemCRAN,
		Origin:    domain.RegistryOrigin("https://packagemanager.posit.co/cran/latest"),
	}
}

// githubPkg builds a source-control-installed R snapshot entry.
func githubPkg(name, version, owner, repo, sha string) domain.InstalledPackage {
	return domain.InstalledPackage{
		Name:      name,
		Version:   version,
		Ecosystem: domain.EcosystemCRAN,
		Origin:    domain.SourceControlOrigin(owner, repo, sha),
	}
}

// condaSource builds a conda DependencySource for tests.
func condaSource(name, domainName string, pkgs ...string) domain.DependencySource {
	return domain.DependencySource{
		Name:      name,
		Domain:    domainName,
		Ecosystem: domain.EcosystemConda,
		Packages:  pkgs,
	}
}

// cranSource builds a CRAN DependencySource for tests.
func cranSource(name, domainName string, pkgs ...string) domain.DependencySource {
	return domain.DependencySource{
		Name:      name,
		Domain:    domainName,
		Ecosystem: domain.EcosystemCRAN,
		Packages:  pkgs,
	}
}
