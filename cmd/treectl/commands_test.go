package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/document"
)

func writeSample(t *testing.T) string {
	t.Helper()
	sample := document.SampleTree()
	// person_2 loses its record, leaving the links onto it dangling.
	kept := sample.Persons[:0]
	for _, p := range sample.Persons {
		if p.ID != "person_2" {
			kept = append(kept, p)
		}
	}
	sample.Persons = kept
	data, err := document.Encode(sample)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectReportsDanglingReferences(t *testing.T) {
	path := writeSample(t)

	out, err := run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var rep report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Persons, 6)
	assert.NotEmpty(t, rep.Connections)
	for _, c := range rep.Connections {
		assert.NotEqual(t, "person_2", c.From)
		assert.NotEqual(t, "person_2", c.To)
	}
	require.NotEmpty(t, rep.Dangling)
	for _, d := range rep.Dangling {
		assert.Equal(t, "person_2", d.Target)
	}

	out, err = run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "dangling references")
	assert.Contains(t, out, "next id: person_8")
}

func TestValidate(t *testing.T) {
	good := writeSample(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"persons": [{"id": "a"}, {"id": "a"}]}`), 0o644))

	out, err := run(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (6 persons)")

	_, err = run(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate person id")
}
