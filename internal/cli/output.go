// Package cli provides the command-line interface for rocketgate.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeJSON renders v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult renders v to w in the requested output format. text calls the
// supplied renderer; json marshals v directly.
func writeResult(w io.Writer, format string, v any, text func(io.Writer) error) error {
	if format == OutputJSON {
		return writeJSON(w, v)
	}
	return text(w)
}

// printf is a small helper that discards the byte count from fmt.Fprintf.
func printf(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
