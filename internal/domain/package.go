// Package domain provides shared domain types for the rocketgate release pipeline.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"strings"

	"github.com/nmfs-opensci/rocketgate/internal/constants"
)

// Ecosystem identifies the package manager a dependency domain belongs to.
type Ecosystem string

// Supported package ecosystems.
const (
	// EcosystemConda covers conda-managed Python packages.
	EcosystemConda Ecosystem = "conda"

	// EcosystemCRAN covers R packages installed from CRAN-compatible repositories.
	EcosystemCRAN Ecosystem = "cran"
)

// String returns the string representation of the Ecosystem.
func (e Ecosystem) String() string {
	return string(e)
}

// Valid reports whether the ecosystem is one of the supported values.
func (e Ecosystem) Valid() bool {
	return e == EcosystemConda || e == EcosystemCRAN
}

// DependencySource is one declared-dependency document: an ordered list of
// package names that must be present in the built artifact. Sources are
// read-only inputs supplied once per pipeline run.
type DependencySource struct {
	// Name identifies the source document (e.g., "env-geospatial.yml", "install.R").
	Name string `json:"name"`

	// Domain is the dependency domain this source belongs to (e.g., "python", "r").
	// All sources of a domain are reconciled together against one snapshot.
	Domain string `json:"domain"`

	// Ecosystem is the package manager the domain's packages belong to.
	// All sources of a domain share one ecosystem.
	Ecosystem Ecosystem `json:"ecosystem"`

	// Group is an optional sub-grouping label within the domain
	// (e.g., "pangeo-notebook feedstock", "other"). Used for manifest
	// group headers; empty means the source name is the group.
	Group string `json:"group,omitempty"`

	// Packages is the ordered list of declared package names.
	// Declaration order is preserved through reconciliation and pin emission.
	Packages []string `json:"packages"`
}

// OriginType discriminates how an installed package was obtained.
type OriginType string

// Origin type constants.
const (
	// OriginRegistry marks packages installed from a versioned package registry.
	OriginRegistry OriginType = "registry"

	// OriginSourceControl marks packages installed from a source-control
	// reference (e.g., remotes::install_github).
	OriginSourceControl OriginType = "source_control"
)

// Origin records the provenance of an installed package. It is constructed
// once at snapshot-capture time; downstream components consume the typed
// variant and never re-parse metadata text.
type Origin struct {
	// Type discriminates the variant. Registry origins use RegistryURL;
	// source-control origins use Owner/Repo/CommitRef.
	Type OriginType `json:"type"`

	// RegistryURL is the package repository the version was resolved from.
	// Only set for registry origins.
	RegistryURL string `json:"registry_url,omitempty"`

	// Owner is the source-control account owning the repository.
	Owner string `json:"owner,omitempty"`

	// Repo is the source-control repository name.
	Repo string `json:"repo,omitempty"`

	// CommitRef is the full commit reference the install was resolved to.
	// May be empty when the capture tool did not record one.
	CommitRef string `json:"commit_ref,omitempty"`
}

// RegistryOrigin constructs a registry provenance record.
func RegistryOrigin(registryURL string) Origin {
	return Origin{Type: OriginRegistry, RegistryURL: registryURL}
}

// SourceControlOrigin constructs a source-control provenance record.
// commitRef may be empty when the snapshot did not record one.
func SourceControlOrigin(owner, repo, commitRef string) Origin {
	return Origin{Type: OriginSourceControl, Owner: owner, Repo: repo, CommitRef: commitRef}
}

// IsSourceControl reports whether the origin is a source-control install.
func (o Origin) IsSourceControl() bool {
	return o.Type == OriginSourceControl
}

// ShortCommitRef returns the abbreviated commit reference used in pin
// directives, or the empty string when no commit reference was recorded.
func (o Origin) ShortCommitRef() string {
	if len(o.CommitRef) <= constants.CommitRefLength {
		return o.CommitRef
	}
	return o.CommitRef[:constants.CommitRefLength]
}

// InstalledPackage is one entry of the installed-package snapshot captured
// from the built artifact. Immutable once captured.
type InstalledPackage struct {
	// Name is the exact package name as reported by the package manager.
	Name string `json:"name"`

	// Version is the installed version string.
	Version string `json:"version"`

	// Ecosystem identifies which package manager reported this entry.
	Ecosystem Ecosystem `json:"ecosystem"`

	// Priority is the package manager's priority tag, when present.
	// Entries tagged with the bundled/base marker are excluded from
	// reconciliation.
	Priority string `json:"priority,omitempty"`

	// Origin is the provenance record for this install.
	Origin Origin `json:"origin"`
}

// Bundled reports whether this entry ships with the base environment and
// must be excluded from the snapshot before matching.
func (p InstalledPackage) Bundled() bool {
	return strings.EqualFold(p.Priority, constants.PriorityBundled)
}

// PresentPackage is a declared package that was found in the snapshot,
// together with the matched installed entry and the sources declaring it.
type PresentPackage struct {
	// Name is the declared package name.
	Name string `json:"name"`

	// Installed is the snapshot entry that satisfied the declaration.
	Installed InstalledPackage `json:"installed"`

	// Sources lists the names of the declaring source documents, in
	// declaration-encounter order.
	Sources []string `json:"sources"`
}

// MissingPackage is a declared package with no matching snapshot entry.
type MissingPackage struct {
	// Name is the declared package name.
	Name string `json:"name"`

	// Sources lists the names of the declaring source documents.
	Sources []string `json:"sources"`
}

// ReconciliationResult partitions one domain's declared packages into
// present and missing sets. Present ∪ Missing always equals the declared
// set, with no overlap.
type ReconciliationResult struct {
	// Domain is the dependency domain this result covers.
	Domain string `json:"domain"`

	// Ecosystem is the package ecosystem of the domain.
	Ecosystem Ecosystem `json:"ecosystem"`

	// Declared is the count of unique declared package names.
	Declared int `json:"declared"`

	// Present lists declared packages found in the snapshot, in declaration order.
	Present []PresentPackage `json:"present"`

	// Missing lists declared packages absent from the snapshot, in declaration order.
	Missing []MissingPackage `json:"missing"`

	// Status is complete iff Missing is empty.
	Status constants.ReconciliationStatus `json:"status"`
}

// Complete reports whether every declared package was found.
func (r ReconciliationResult) Complete() bool {
	return r.Status == constants.ReconciliationComplete
}

// PinRecord is one emitted install directive for a present package: either a
// versioned-registry pin or a source-control pin. Every present package
// produces exactly one PinRecord.
type PinRecord struct {
	// Name is the package name.
	Name string `json:"name"`

	// Version is the exact installed version being pinned.
	Version string `json:"version"`

	// Ecosystem selects the directive syntax the record renders to.
	Ecosystem Ecosystem `json:"ecosystem"`

	// Group is the manifest group header this record is emitted under.
	Group string `json:"group"`

	// Origin selects the pin form: registry pins carry the repository URL,
	// source-control pins carry owner/repo and an optional commit reference.
	Origin Origin `json:"origin"`
}

// ValidationReport aggregates reconciliation results for all dependency
// domains into a single pass/fail record. It is owned by the invocation that
// produced it and passed by value to release-record assembly.
type ValidationReport struct {
	// Results holds one entry per domain, in configuration order.
	Results []ReconciliationResult `json:"results"`

	// AllPassed is true iff every domain's status is complete.
	AllPassed bool `json:"all_passed"`
}

// MissingNames returns the flat list of missing package names across all
// domains, in domain then declaration order. Used for error context.
func (v ValidationReport) MissingNames() []string {
	var names []string
	for _, r := range v.Results {
		for _, m := range r.Missing {
			names = append(names, m.Name)
		}
	}
	return names
}
