package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/blogkb/pkg/blogkb/internalerr"
	"github.com/cognicore/blogkb/pkg/blogkb/kb"
)

const fixture = `{"id":"qc","title":"Quantum Computing Explained","topic":"Quantum Computing","topicCategory":"Technology","tags":["qubits"],"summary":"Qubits and gates.","content":"Quantum Computing is the use of quantum phenomena to perform computation. The key idea is that Quantum Bits hold superpositions.","views":10,"likes":2,"createdAt":"2025-01-02T00:00:00Z"}
{"id":"bread","title":"Baking Bread","topic":"Baking","topicCategory":"Home","summary":"Flour and yeast.","content":"Bread needs flour, water and yeast and an essential amount of time to rise properly.","createdAt":"2025-01-01T00:00:00Z"}
`

func writeConfig(t *testing.T, dir string) (configPath, seedPath, output string) {
	t.Helper()
	output = filepath.Join(dir, "kb.json")
	seedPath = filepath.Join(dir, "blogs.jsonl")
	configPath = filepath.Join(dir, "blogkb.yaml")

	require.NoError(t, os.WriteFile(seedPath, []byte(fixture), 0o644))
	require.NoError(t, os.WriteFile(configPath, []byte("store:\n  driver: memory\nkb:\n  output: "+output+"\nlog:\n  level: error\n"), 0o644))
	return configPath, seedPath, output
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

func TestUpdateKBAndStats(t *testing.T) {
	configPath, seedPath, output := writeConfig(t, t.TempDir())

	out, err := run(t, "update-kb", "--config", configPath, "--seed", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Knowledge base written to "+output)
	assert.Contains(t, out, "Blogs:            2")

	base, err := kb.ReadArtifact(output)
	require.NoError(t, err)
	require.Len(t, base.Blogs, 2)
	assert.Equal(t, "qc", base.Blogs[0].ID)
	assert.Equal(t, "Blog Knowledge Base", base.Metadata.Name)

	out, err = run(t, "stats", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Blog Knowledge Base 2.0.0")
	assert.Contains(t, out, "Top categories:")
	assert.Contains(t, out, "Technology")
}

func TestUpdateKBEmptyStoreFails(t *testing.T) {
	configPath, _, output := writeConfig(t, t.TempDir())

	_, err := run(t, "update-kb", "--config", configPath)
	require.Error(t, err)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no artifact should be written")
}

func TestImportIntoMemory(t *testing.T) {
	configPath, seedPath, _ := writeConfig(t, t.TempDir())

	out, err := run(t, "import", seedPath, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 blogs")
}

func TestStatsTopBounds(t *testing.T) {
	configPath, seedPath, _ := writeConfig(t, t.TempDir())
	_, err := run(t, "update-kb", "--config", configPath, "--seed", seedPath)
	require.NoError(t, err)

	_, err = run(t, "stats", "--config", configPath, "--top=-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	out, err := run(t, "stats", "--config", configPath, "--top", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "Top categories:")
}

func TestStatsMissingArtifact(t *testing.T) {
	configPath, _, _ := writeConfig(t, t.TempDir())

	_, err := run(t, "stats", "--config", configPath)
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	configPath, _, _ := writeConfig(t, t.TempDir())

	_, err := run(t, "stats", "--config", configPath, "--log-level", "loud")
	assert.Error(t, err)
}
