package manifest

import (
	"encoding/json"
	"strings"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// condaListEntry is one record of `conda list --json` output.
type condaListEntry struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Channel  string `json:"channel"`
	BaseURL  string `json:"base_url"`
	Platform string `json:"platform"`
}

// ParseCondaSnapshot parses `conda list --json` output into installed-package
// records. registryURL is the channel URL pins will be resolved against; it
// is an explicit input, never read from ambient environment. When an entry
// reports its own base_url, that wins over the fallback.
func ParseCondaSnapshot(data []byte, registryURL string) ([]domain.InstalledPackage, error) {
	var entries []condaListEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, rocketerrors.Wrapf(rocketerrors.ErrSnapshotParse, "conda list output: %v", err)
	}

	installed := make([]domain.InstalledPackage, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		url := e.BaseURL
		if url == "" {
			url = registryURL
		}
		installed = append(installed, domain.InstalledPackage{
			Name:      e.Name,
			Version:   e.Version,
			Ecosystem: domain.EcosystemConda,
			Origin:    domain.RegistryOrigin(url),
		})
	}
	return installed, nil
}

// rSnapshotEntry is one record of the R snapshot JSON: installed.packages()
// joined with the remotes fields from each package DESCRIPTION.
type rSnapshotEntry struct {
	Package        string `json:"Package"`
	Version        string `json:"Version"`
	Priority       string `json:"Priority"`
	LibPath        string `json:"LibPath"`
	RemoteType     string `json:"RemoteType"`
	RemoteUsername string `json:"RemoteUsername"`
	RemoteRepo     string `json:"RemoteRepo"`
	RemoteSha      string `json:"RemoteSha"`
}

// RSnapshotOptions controls R snapshot parsing.
type RSnapshotOptions struct {
	// RegistryURL is the CRAN-compatible repository pins will be resolved
	// against. Explicit input, never read from ambient environment.
	RegistryURL string

	// DisallowedLibPrefix drops packages installed under the system base
	// library path. Those ship with the interpreter and must never be
	// pinned; entries under this prefix are removed at capture time.
	DisallowedLibPrefix string
}

// ParseRSnapshot parses the R installed-package snapshot JSON into
// installed-package records. Packages with a github remote type become
// source-control origins carrying owner/repo/sha unchanged; everything else
// is a registry install. Priority tags pass through so bundled base packages
// can be excluded during reconciliation.
func ParseRSnapshot(data []byte, opts RSnapshotOptions) ([]domain.InstalledPackage, error) {
	var entries []rSnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, rocketerrors.Wrapf(rocketerrors.ErrSnapshotParse, "R snapshot: %v", err)
	}

	installed := make([]domain.InstalledPackage, 0, len(entries))
	for _, e := range entries {
		if e.Package == "" {
			continue
		}
		if opts.DisallowedLibPrefix != "" && strings.HasPrefix(e.LibPath, opts.DisallowedLibPrefix) {
			continue
		}

		origin := domain.RegistryOrigin(opts.RegistryURL)
		if strings.EqualFold(e.RemoteType, "github") && e.RemoteUsername != "" && e.RemoteRepo != "" {
			origin = domain.SourceControlOrigin(e.RemoteUsername, e.RemoteRepo, e.RemoteSha)
		}

		installed = append(installed, domain.InstalledPackage{
			Name:      e.Package,
			Version:   e.Version,
			Ecosystem: domain.EcosystemCRAN,
			Priority:  e.Priority,
			Origin:    origin,
		})
	}
	return installed, nil
}

// ParseSnapshot dispatches to the ecosystem-specific snapshot parser.
// For the conda ecosystem the RSnapshotOptions lib-prefix guardrail does not
// apply; only the registry URL is used.
func ParseSnapshot(eco domain.Ecosystem, data []byte, opts RSnapshotOptions) ([]domain.InstalledPackage, error) {
	switch eco {
	case domain.EcosystemConda:
		return ParseCondaSnapshot(data, opts.RegistryURL)
	case domain.EcosystemCRAN:
		return ParseRSnapshot(data, opts)
	default:
		return nil, rocketerrors.Wrapf(rocketerrors.ErrInvalidEcosystem, "%q", eco)
	}
}
