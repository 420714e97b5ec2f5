package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir, read1, read2, cells, tags string
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	fh, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(fh)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, fh.Close())
}

func fastqRecords(seqs []string) string {
	var b strings.Builder
	for i, s := range seqs {
		fmt.Fprintf(&b, "@pair%d\n%s\n+\n%s\n", i, s, strings.Repeat("F", len(s)))
	}
	return b.String()
}

func newFixture(t *testing.T, r1, r2 []string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:   dir,
		read1: filepath.Join(dir, "sample_R1.fastq.gz"),
		read2: filepath.Join(dir, "sample_R2.fastq.gz"),
		cells: filepath.Join(dir, "cells.txt"),
		tags:  filepath.Join(dir, "multiseq.txt"),
	}
	writeGzip(t, f.read1, fastqRecords(r1))
	writeGzip(t, f.read2, fastqRecords(r2))
	require.NoError(t, os.WriteFile(f.cells, []byte("AAAAAAAAAAAAAAAA\nCCCCCCCCCCCCCCCC\n"), 0o644))
	require.NoError(t, os.WriteFile(f.tags, []byte("GGGGGGGG\nTTTTTTTT\n"), 0o644))
	return f
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t,
		[]string{
			"AAAAAAAAAAAAAAAACCCCCCCCCCTTTTTTTT",
			"AAAAAAAAAAAAAAAAGGGGGGGGGGTTTTTTTT",
			"AAAAAAAAAAAAAAAAGGGGGGGGGGTTTTTTTT",
			"AAAAAAAAAAAAAAATACACACACACTTTTTTTT", // one mismatch
			"CCCCCCCCCCCCCCCCACACACACACTTTTTTTT",
			"AAAAAAAA", // too short
		},
		[]string{
			"GGGGGGGGAAAAAAAAAAAA",
			"GGGGGGGGAAAAAAAAAAAA",
			"GGGGGGGGAAAAAAAAAAAA",
			"GGGGGGGGAAAAAAAAAAAA",
			"ACACACACAAAAAAAAAAAA", // unknown tag
			"TTTTTTTTAAAAAAAAAAAA",
		},
	)

	out := filepath.Join(f.dir, "counts.tsv")
	require.NoError(t, execute(t,
		"-i", f.read1, "-I", f.read2, "-c", f.cells, "-m", f.tags,
		"-o", out, "--log-level", "warn"))
	assert.Equal(t,
		"Barcode\tMultiseq\tnUMI\n"+
			"AAAAAAAAAAAAAAAA\tGGGGGGGG\t2\n",
		readOutput(t, out))

	summary := filepath.Join(f.dir, "summary.json")
	require.NoError(t, execute(t,
		"-i", f.read1, "-I", f.read2, "-c", f.cells, "-m", f.tags,
		"-t", "1", "-p", "3", "-o", out, "--summary", summary, "--log-level", "warn"))
	assert.Equal(t,
		"Barcode\tMultiseq\tnUMI\n"+
			"AAAAAAAAAAAAAAAA\tGGGGGGGG\t3\n",
		readOutput(t, out))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, summary)), &got))
	assert.Equal(t, float64(6), got["read_pairs"])
	assert.Equal(t, float64(4), got["recorded_pairs"])
	assert.Equal(t, float64(1), got["malformed_pairs"])
	assert.Equal(t, float64(1), got["multiseq_mismatches"])
	assert.Equal(t, float64(0), got["both_mismatches"])
	assert.Equal(t, float64(1), got["cell_barcodes_corrected"])
}

func TestTruncatedFinalRecordKeepsCounts(t *testing.T) {
	r1 := []string{"AAAAAAAAAAAAAAAACCCCCCCCCC", "AAAAAAAAAAAAAAAAGGGGGGGGGG"}
	f := newFixture(t, r1, []string{"GGGGGGGG", "GGGGGGGG", "GGGGGGGG"})
	writeGzip(t, f.read1, fastqRecords(r1)+"@pair2\nAAAAAAAAAAAAAAAATTTTTTTTTT\n+\nFFF")

	out := filepath.Join(f.dir, "counts.tsv")
	summary := filepath.Join(f.dir, "summary.json")
	require.NoError(t, execute(t,
		"-i", f.read1, "-I", f.read2, "-c", f.cells, "-m", f.tags,
		"-o", out, "--summary", summary, "--log-level", "error"))
	assert.Equal(t,
		"Barcode\tMultiseq\tnUMI\n"+
			"AAAAAAAAAAAAAAAA\tGGGGGGGG\t2\n",
		readOutput(t, out))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, summary)), &got))
	assert.Equal(t, float64(2), got["read_pairs"])
	assert.Equal(t, float64(0), got["malformed_pairs"])
}

func TestConfigFileWithOverrides(t *testing.T) {
	f := newFixture(t,
		[]string{"AAAAAAAAAAAAAAAACCCCCCCCCC", "CCCCCCCCCCCCCCCCAAAAAAAAAA"},
		[]string{"GGGGGGGG", "TTTTTTTA"},
	)
	out := filepath.Join(f.dir, "from_config.tsv")
	cfgPath := filepath.Join(f.dir, "run.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
read_1 = %q
read_2 = %q
cell_barcodes = %q
multiseq_barcodes = %q
output = %q
`, f.read1, f.read2, f.cells, f.tags, out)), 0o644))

	require.NoError(t, execute(t, "--config", cfgPath, "--log-level", "warn"))
	assert.Equal(t,
		"Barcode\tMultiseq\tnUMI\n"+
			"AAAAAAAAAAAAAAAA\tGGGGGGGG\t1\n",
		readOutput(t, out))

	require.NoError(t, execute(t, "--config", cfgPath, "--tol", "1", "--strategy", "bktree", "--log-level", "warn"))
	assert.Equal(t,
		"Barcode\tMultiseq\tnUMI\n"+
			"AAAAAAAAAAAAAAAA\tGGGGGGGG\t1\n"+
			"CCCCCCCCCCCCCCCC\tTTTTTTTT\t1\n",
		readOutput(t, out))
}

func TestInvalidInvocation(t *testing.T) {
	f := newFixture(t, []string{"AAAAAAAAAAAAAAAACCCCCCCCCC"}, []string{"GGGGGGGG"})

	assert.Error(t, execute(t, "-i", f.read1, "-I", f.read2, "-c", f.cells, "--log-level", "warn"))
	assert.Error(t, execute(t, "-i", f.read1, "-I", f.read2, "-c", f.cells, "-m", f.tags,
		"-s", "10", "--log-level", "warn"), "tag whitelist width must match --size")
	assert.Error(t, execute(t, "-i", f.read1, "-I", f.read2, "-c", f.cells, "-m", f.tags,
		"--log-level", "loud"))
	assert.Error(t, execute(t, "-i", filepath.Join(f.dir, "missing.fastq"), "-I", f.read2,
		"-c", f.cells, "-m", f.tags, "--log-level", "warn"))
}
