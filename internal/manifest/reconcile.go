package manifest

import (
	"github.com/nmfs-opensci/rocketgate/internal/constants"
	"github.com/nmfs-opensci/rocketgate/internal/domain"
)

// Reconcile partitions every domain's declared package names into present
// and missing sets against the installed-package snapshot.
//
// Matching is by exact case-sensitive name equality; version constraints
// play no part. Bundled/base-priority snapshot entries are excluded before
// matching: they never satisfy a declaration and are never pinned.
//
// The result is deterministic: one entry per domain in first-appearance
// order of the sources, with present/missing lists in declaration order.
// A domain with zero declared names is vacuously complete.
//
// Reconcile is a pure function. Snapshot capture failures are the caller's
// concern (signaled upstream as ErrSnapshotUnavailable).
func Reconcile(sources []domain.DependencySource, installed []domain.InstalledPackage) []domain.ReconciliationResult {
	// Snapshot index, bundled entries excluded. First occurrence wins so
	// repeated listings cannot flip a match.
	index := make(map[string]domain.InstalledPackage, len(installed))
	for _, pkg := range installed {
		if pkg.Bundled() {
			continue
		}
		if _, ok := index[pkg.Name]; !ok {
			index[pkg.Name] = pkg
		}
	}

	// Group sources by domain, preserving first-appearance order.
	var order []string
	byDomain := make(map[string][]domain.DependencySource)
	for _, src := range sources {
		if _, ok := byDomain[src.Domain]; !ok {
			order = append(order, src.Domain)
		}
		byDomain[src.Domain] = append(byDomain[src.Domain], src)
	}

	results := make([]domain.ReconciliationResult, 0, len(order))
	for _, name := range order {
		results = append(results, reconcileDomain(name, byDomain[name], index))
	}
	return results
}

// reconcileDomain reconciles a single domain's sources against the snapshot
// index. A package declared by multiple sources is partitioned once, with
// every declaring source attributed in encounter order.
func reconcileDomain(name string, sources []domain.DependencySource, index map[string]domain.InstalledPackage) domain.ReconciliationResult {
	result := domain.ReconciliationResult{
		Domain: name,
		Status: constants.ReconciliationComplete,
	}
	if len(sources) > 0 {
		result.Ecosystem = sources[0].Ecosystem
	}

	// seen maps a declared name to its index in the present (>= 0) or
	// missing (< 0, stored as -idx-1) list, for source attribution.
	seen := make(map[string]int)
	for _, src := range sources {
		for _, pkg := range src.Packages {
			if idx, ok := seen[pkg]; ok {
				if idx >= 0 {
					result.Present[idx].Sources = appendSource(result.Present[idx].Sources, src.Name)
				} else {
					i := -idx - 1
					result.Missing[i].Sources = appendSource(result.Missing[i].Sources, src.Name)
				}
				continue
			}

			if installed, ok := index[pkg]; ok {
				seen[pkg] = len(result.Present)
				result.Present = append(result.Present, domain.PresentPackage{
					Name:      pkg,
					Installed: installed,
					Sources:   []string{src.Name},
				})
			} else {
				seen[pkg] = -len(result.Missing) - 1
				result.Missing = append(result.Missing, domain.MissingPackage{
					Name:    pkg,
					Sources: []string{src.Name},
				})
			}
		}
	}

	result.Declared = len(seen)
	if len(result.Missing) > 0 {
		result.Status = constants.ReconciliationIncomplete
	}
	return result
}

// appendSource appends a source name if not already attributed.
func appendSource(sources []string, name string) []string {
	for _, s := range sources {
		if s == name {
			return sources
		}
	}
	return append(sources, name)
}
