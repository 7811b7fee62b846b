package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"declared": 3}))
	assert.Equal(t, "{\n  \"declared\": 3\n}\n", buf.String())
}

func TestWriteResult_TextCallsRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := writeResult(&buf, OutputText, map[string]string{"ignored": "x"}, func(w io.Writer) error {
		return printf(w, "rendered text")
	})
	require.NoError(t, err)
	assert.Equal(t, "rendered text", buf.String())
}

func TestWriteResult_JSONMarshalsValue(t *testing.T) {
	var buf bytes.Buffer
	err := writeResult(&buf, OutputJSON, map[string]bool{"all_passed": true}, func(io.Writer) error {
		t.Fatal("text renderer must not run for json output")
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"all_passed": true`)
}
