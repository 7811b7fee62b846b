// Package manifest implements the package-pin extraction and validation
// pipeline: loading declared-dependency sources, parsing installed-package
// snapshots, reconciling the two, emitting re-executable pinned manifests,
// and aggregating validation reports.
//
// All exported functions are pure over their inputs; file and process I/O
// stays with the callers.
package manifest

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// condaEnvFile is the subset of a conda environment file we read.
type condaEnvFile struct {
	Name         string `yaml:"name"`
	Dependencies []any  `yaml:"dependencies"`
}

// versionSpecChars are the characters that begin a version constraint in a
// conda or pip dependency spec (e.g. "gdal>=3.8", "python=3.11").
const versionSpecChars = "=<>~! "

// stripVersionSpec returns the bare package name from a dependency spec.
func stripVersionSpec(spec string) string {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexAny(spec, versionSpecChars); i >= 0 {
		spec = spec[:i]
	}
	return strings.TrimSpace(spec)
}

// ParseCondaEnvSource parses a conda environment file (env-*.yml) into a
// DependencySource. Version constraints are stripped: declarations are
// matched by name only. Nested pip dependency lists are included.
// Declaration order is preserved; duplicate names keep their first position.
func ParseCondaEnvSource(name, domainName string, data []byte) (domain.DependencySource, error) {
	src := domain.DependencySource{
		Name:      name,
		Domain:    domainName,
		Ecosystem: domain.EcosystemConda,
	}

	var env condaEnvFile
	if err := yaml.Unmarshal(data, &env); err != nil {
		return src, rocketerrors.Wrapf(rocketerrors.ErrSourceParse, "%s: %v", name, err)
	}

	seen := make(map[string]bool)
	add := func(spec string) {
		pkg := stripVersionSpec(spec)
		if pkg == "" || seen[pkg] {
			return
		}
		seen[pkg] = true
		src.Packages = append(src.Packages, pkg)
	}

	for _, dep := range env.Dependencies {
		switch d := dep.(type) {
		case string:
			add(d)
		case map[string]any:
			// Nested pip block: {pip: [pkg, ...]}
			pipDeps, ok := d["pip"].([]any)
			if !ok {
				continue
			}
			for _, p := range pipDeps {
				if s, ok := p.(string); ok {
					add(s)
				}
			}
		}
	}

	return src, nil
}

// R install list patterns. The declared set is the union of quoted names in
// c(...) vectors (install.packages style) and the repository names of
// remotes::install_github calls.
var (
	rVectorRe = regexp.MustCompile(`c\s*\(\s*([^)]+)\)`)
	rQuotedRe = regexp.MustCompile(`["']([^"']+)["']`)
	rGithubRe = regexp.MustCompile(`remotes::install_github\s*\(\s*["']([^/"']+)/([^"'@)]+)`)
)

// ParseRInstallSource parses an R install script (install.R style) into a
// DependencySource. Package names come from c(...) vectors and from
// remotes::install_github("owner/repo") calls, where the declared name is
// the repository name. Declaration order is preserved.
func ParseRInstallSource(name, domainName string, data []byte) (domain.DependencySource, error) {
	src := domain.DependencySource{
		Name:      name,
		Domain:    domainName,
		Ecosystem: domain.EcosystemCRAN,
	}

	content := string(data)
	seen := make(map[string]bool)
	add := func(pkg string) {
		pkg = strings.TrimSpace(pkg)
		if pkg == "" || seen[pkg] {
			return
		}
		seen[pkg] = true
		src.Packages = append(src.Packages, pkg)
	}

	for _, m := range rVectorRe.FindAllStringSubmatch(content, -1) {
		for _, q := range rQuotedRe.FindAllStringSubmatch(m[1], -1) {
			// Skip things that are clearly not package names (URLs, paths).
			if strings.ContainsAny(q[1], "/:") {
				continue
			}
			add(q[1])
		}
	}

	for _, m := range rGithubRe.FindAllStringSubmatch(content, -1) {
		add(m[2])
	}

	return src, nil
}

// ParseSource dispatches to the ecosystem-specific source parser.
func ParseSource(eco domain.Ecosystem, name, domainName string, data []byte) (domain.DependencySource, error) {
	switch eco {
	case domain.EcosystemConda:
		return ParseCondaEnvSource(name, domainName, data)
	case domain.EcosystemCRAN:
		return ParseRInstallSource(name, domainName, data)
	default:
		return domain.DependencySource{}, rocketerrors.Wrapf(rocketerrors.ErrInvalidEcosystem, "%q", eco)
	}
}

// LoadSources reads and parses every file matched by the given glob patterns
// into DependencySources for one domain. Patterns that match nothing are an
// error: a missing declared-dependency document means the configuration is
// pointing at the wrong tree.
func LoadSources(eco domain.Ecosystem, domainName string, patterns []string) ([]domain.DependencySource, error) {
	var sources []domain.DependencySource
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, rocketerrors.Wrapf(rocketerrors.ErrSourceNotFound, "bad pattern %q: %v", pattern, err)
		}
		if len(matches) == 0 {
			return nil, rocketerrors.Wrapf(rocketerrors.ErrSourceNotFound, "pattern %q matched no files", pattern)
		}
		for _, path := range matches {
			data, err := os.ReadFile(path) //nolint:gosec // Paths come from operator configuration
			if err != nil {
				return nil, rocketerrors.Wrapf(rocketerrors.ErrSourceNotFound, "%s: %v", path, err)
			}
			src, err := ParseSource(eco, filepath.Base(path), domainName, data)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
	}
	return sources, nil
}
