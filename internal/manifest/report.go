package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/nmfs-opensci/rocketgate/internal/domain"
)

// BuildReport aggregates per-domain reconciliation results into a single
// validation report. all_passed is the logical AND of every domain's status.
// Pure aggregation; no I/O.
func BuildReport(results []domain.ReconciliationResult) domain.ValidationReport {
	report := domain.ValidationReport{
		Results:   results,
		AllPassed: true,
	}
	for _, r := range results {
		if !r.Complete() {
			report.AllPassed = false
		}
	}
	return report
}

// reportRule is the separator line used in the text report.
const reportRule = "======================================================================"

// WriteReportText renders the human-readable validation report: per domain,
// declared/found counts, a STATUS line, and the literal missing-name list
// with the sources that declared each missing package. This is the artifact
// attached to a failed run for debugging.
func WriteReportText(w io.Writer, report domain.ValidationReport) error {
	if _, err := fmt.Fprintf(w, "%s\nPackage Validation Report\n%s\n", reportRule, reportRule); err != nil {
		return err
	}

	for _, r := range report.Results {
		if err := writeDomainReport(w, r); err != nil {
			return err
		}
	}

	overall := "SUCCESS"
	if !report.AllPassed {
		overall = "FAILED"
	}
	_, err := fmt.Fprintf(w, "\nOVERALL: %s\n%s\n", overall, reportRule)
	return err
}

// writeDomainReport renders one domain's section of the text report.
func writeDomainReport(w io.Writer, r domain.ReconciliationResult) error {
	found := len(r.Present)
	if _, err := fmt.Fprintf(w, "\n%s packages (%s): declared %d, found %d\n",
		r.Domain, r.Ecosystem, r.Declared, found); err != nil {
		return err
	}

	if r.Complete() {
		_, err := fmt.Fprintf(w, "STATUS: SUCCESS\n")
		return err
	}

	if _, err := fmt.Fprintf(w, "STATUS: FAILED\n\nMissing packages:\n"); err != nil {
		return err
	}
	for _, m := range r.Missing {
		if _, err := fmt.Fprintf(w, "  - %s\n    Found in: %s\n", m.Name, strings.Join(m.Sources, ", ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal missing packages: %d\n", len(r.Missing))
	return err
}

// RenderReportText renders the validation report to a string.
func RenderReportText(report domain.ValidationReport) string {
	var b strings.Builder
	_ = WriteReportText(&b, report)
	return b.String()
}
