package manifest

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
	rocketerrors "github.com/nmfs-opensci/rocketgate/internal/errors"
)

// Pinned-manifest directive patterns. These mirror what WriteManifest emits
// so an emitted document parses back to the same pin set (round-trip).
var (
	installVersionRe = regexp.MustCompile(`^remotes::install_version\(\s*"([^"]+)",\s*version\s*=\s*"([^"]+)"`)
	installGithubRe  = regexp.MustCompile(`^remotes::install_github\("([^/"]+)/([^"@]+)(?:@([^"]+))?"\)(?:\s*#\s*installed version\s+(\S+))?`)
	condaPinRe       = regexp.MustCompile(`^([A-Za-z0-9._-]+)=([^=\s]+)(?:=\S+)?$`)
	condaGithubRe    = regexp.MustCompile(`^# from github ([^/\s]+)/(\S+)@(\S+)$`)
)

// ParseManifest parses a pinned manifest document (conda or CRAN form) back
// into PinRecords. Comment and option lines are skipped, except the conda
// provenance note which attaches source-control origin to the following pin.
//
// Re-parsing an emitted manifest and re-reconciling against the original
// present set yields the same package names with matching versions.
func ParseManifest(r io.Reader) ([]domain.PinRecord, error) {
	var records []domain.PinRecord
	var pendingOrigin *domain.Origin
	group := ""

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if m := condaGithubRe.FindStringSubmatch(line); m != nil {
				origin := domain.SourceControlOrigin(m[1], m[2], m[3])
				pendingOrigin = &origin
				continue
			}
			if g, ok := strings.CutPrefix(line, "# -- "); ok {
				group = strings.TrimSuffix(g, " --")
			}
			continue
		}
		if strings.HasPrefix(line, "options(") {
			continue
		}

		record, ok := parseDirective(line, group)
		if !ok {
			return nil, rocketerrors.Wrapf(rocketerrors.ErrManifestParse, "unrecognized directive: %s", line)
		}
		if pendingOrigin != nil && record.Ecosystem == domain.EcosystemConda {
			record.Origin = *pendingOrigin
		}
		pendingOrigin = nil
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, rocketerrors.Wrap(rocketerrors.ErrManifestParse, err.Error())
	}

	return records, nil
}

// parseDirective parses one non-comment manifest line.
func parseDirective(line, group string) (domain.PinRecord, bool) {
	if m := installVersionRe.FindStringSubmatch(line); m != nil {
		return domain.PinRecord{
			Name:      m[1],
			Version:   m[2],
			Ecosystem: domain.EcosystemCRAN,
			Group:     group,
			Origin:    domain.Origin{Type: domain.OriginRegistry},
		}, true
	}

	if m := installGithubRe.FindStringSubmatch(line); m != nil {
		return domain.PinRecord{
			Name:      m[2],
			Version:   m[4], // recovered from the trailing version note
			Ecosystem: domain.EcosystemCRAN,
			Group:     group,
			Origin:    domain.SourceControlOrigin(m[1], m[2], m[3]),
		}, true
	}

	if m := condaPinRe.FindStringSubmatch(line); m != nil {
		return domain.PinRecord{
			Name:      m[1],
			Version:   m[2],
			Ecosystem: domain.EcosystemConda,
			Group:     group,
			Origin:    domain.Origin{Type: domain.OriginRegistry},
		}, true
	}

	return domain.PinRecord{}, false
}

// PinnedNames extracts the package-name set of a pinned manifest. This is
// what validate mode uses to check an existing pinned file against the
// declared sources without a live snapshot.
func PinnedNames(records []domain.PinRecord) []domain.InstalledPackage {
	installed := make([]domain.InstalledPackage, 0, len(records))
	for _, r := range records {
		installed = append(installed, domain.InstalledPackage{
			Name:      r.Name,
			Version:   r.Version,
			Ecosystem: r.Ecosystem,
			Origin:    r.Origin,
		})
	}
	return installed
}
