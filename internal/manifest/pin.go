package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// EmitPins produces one PinRecord per present package of a reconciliation
// result. Missing packages never produce a record. Ordering is stable:
// declaration order grouped by source, so successive releases diff
// minimally. The record's group is the first source that declared the
// package.
func EmitPins(result domain.ReconciliationResult) []domain.PinRecord {
	records := make([]domain.PinRecord, 0, len(result.Present))
	for _, p := range result.Present {
		group := ""
		if len(p.Sources) > 0 {
			group = p.Sources[0]
		}
		records = append(records, domain.PinRecord{
			Name:      p.Name,
			Version:   p.Installed.Version,
			Ecosystem: result.Ecosystem,
			Group:     group,
			Origin:    p.Installed.Origin,
		})
	}
	return records
}

// ManifestSpec describes one pinned manifest document to render.
type ManifestSpec struct {
	// Domain is the dependency domain the manifest covers.
	Domain string

	// Ecosystem selects the directive syntax.
	Ecosystem domain.Ecosystem

	// RegistryURL is the repository used for registry pins. Stated
	// explicitly at the top of the document.
	RegistryURL string

	// Records are the pins to render, already in emit order.
	Records []domain.PinRecord
}

// WriteManifest renders a pinned manifest document to w. The destination is
// an output-sink parameter: stdout and files go through the same path.
//
// The document begins with the registry URL, groups records under a header
// comment per source, and renders one directive per record. The output is
// re-executable by the domain's package manager without modification.
func WriteManifest(w io.Writer, spec ManifestSpec) error {
	switch spec.Ecosystem {
	case domain.EcosystemConda:
		return writeCondaManifest(w, spec)
	case domain.EcosystemCRAN:
		return writeCRANManifest(w, spec)
	default:
		return rocketerrors.Wrapf(rocketerrors.ErrInvalidEcosystem, "%q", spec.Ecosystem)
	}
}

// RenderManifest renders a pinned manifest document to a string.
func RenderManifest(spec ManifestSpec) (string, error) {
	var b strings.Builder
	if err := WriteManifest(&b, spec); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeCondaManifest renders conda explicit pin lines (name=version),
// installable with `conda install --file`.
func writeCondaManifest(w io.Writer, spec ManifestSpec) error {
	if err := writeHeader(w, spec, "channel"); err != nil {
		return err
	}

	return writeGroups(w, spec.Records, func(w io.Writer, r domain.PinRecord) error {
		if r.Origin.IsSourceControl() {
			// conda has no source-control directive syntax; note the
			// provenance above the version pin so it survives round-trips.
			ref := r.Origin.ShortCommitRef()
			if ref == "" {
				ref = "HEAD"
			}
			if _, err := fmt.Fprintf(w, "# from github %s/%s@%s\n", r.Origin.Owner, r.Origin.Repo, ref); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "%s=%s\n", r.Name, r.Version)
		return err
	})
}

// writeCRANManifest renders remotes:: install directives, runnable with
// `Rscript packages-r-pinned.R`.
func writeCRANManifest(w io.Writer, spec ManifestSpec) error {
	if err := writeHeader(w, spec, "repository"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "options(repos = c(CRAN = %q))\n", spec.RegistryURL); err != nil {
		return err
	}

	return writeGroups(w, spec.Records, func(w io.Writer, r domain.PinRecord) error {
		if !r.Origin.IsSourceControl() {
			// Registry pin: exact version from the captured registry,
			// with upgrade-on-install explicitly disabled.
			_, err := fmt.Fprintf(w, "remotes::install_version(%q, version = %q, repos = %q, upgrade = \"never\")\n",
				r.Name, r.Version, spec.RegistryURL)
			return err
		}

		if ref := r.Origin.ShortCommitRef(); ref != "" {
			_, err := fmt.Fprintf(w, "remotes::install_github(\"%s/%s@%s\") # installed version %s\n",
				r.Origin.Owner, r.Origin.Repo, ref, r.Version)
			return err
		}

		// No commit reference recorded: best-effort install with the
		// resolved version noted inline.
		_, err := fmt.Fprintf(w, "remotes::install_github(\"%s/%s\") # installed version %s\n",
			r.Origin.Owner, r.Origin.Repo, r.Version)
		return err
	})
}

// writeHeader writes the shared manifest preamble. The registry URL comes
// first: every non-provenance pin in the document resolves against it.
func writeHeader(w io.Writer, spec ManifestSpec, registryLabel string) error {
	_, err := fmt.Fprintf(w,
		"# Pinned package manifest for domain %q.\n"+
			"# Generated by rocketgate; do not edit by hand.\n"+
			"# %s: %s\n",
		spec.Domain, registryLabel, spec.RegistryURL)
	return err
}

// writeGroups renders records grouped under per-source header comments,
// preserving record order within each group.
func writeGroups(w io.Writer, records []domain.PinRecord, render func(io.Writer, domain.PinRecord) error) error {
	current := "\x00" // sentinel that never matches a real group
	for _, r := range records {
		if r.Group != current {
			current = r.Group
			if _, err := fmt.Fprintf(w, "\n# -- %s --\n", r.Group); err != nil {
				return err
			}
		}
		if err := render(w, r); err != nil {
			return err
		}
	}
	return nil
}
