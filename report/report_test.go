package report

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamteyssier/DeMultiSeq/aggregate"
	"github.com/noamteyssier/DeMultiSeq/demux"
)

func sampleStore() *aggregate.Store {
	s := aggregate.NewStore()
	s.Record("CCCCCCCCCCCCCCCC", "GGGGGGGG", "AAAAAAAAAA")
	s.Record("AAAAAAAAAAAAAAAA", "TTTTTTTT", "AAAAAAAAAA")
	s.Record("AAAAAAAAAAAAAAAA", "GGGGGGGG", "AAAAAAAAAA")
	s.Record("AAAAAAAAAAAAAAAA", "GGGGGGGG", "CCCCCCCCCC")
	return s
}

const sampleTable = "Barcode\tMultiseq\tnUMI\n" +
	"AAAAAAAAAAAAAAAA\tGGGGGGGG\t2\n" +
	"AAAAAAAAAAAAAAAA\tTTTTTTTT\t1\n" +
	"CCCCCCCCCCCCCCCC\tGGGGGGGG\t1\n"

func TestWriteStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStore(&buf, sampleStore()))
	assert.Equal(t, sampleTable, buf.String())
}

func TestWriteTSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTSV(&buf, nil))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "counts.tsv")
	require.NoError(t, WriteFile(plain, sampleStore()))
	data, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, sampleTable, string(data))

	gzPath := filepath.Join(dir, "counts.tsv.gz")
	require.NoError(t, WriteFile(gzPath, sampleStore()))
	fh, err := os.Open(gzPath)
	require.NoError(t, err)
	defer fh.Close()
	gz, err := gzip.NewReader(fh)
	require.NoError(t, err)
	data, err = io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, sampleTable, string(data))

	szPath := filepath.Join(dir, "counts.tsv.sz")
	require.NoError(t, WriteFile(szPath, sampleStore()))
	fh2, err := os.Open(szPath)
	require.NoError(t, err)
	defer fh2.Close()
	data, err = io.ReadAll(snappy.NewReader(fh2))
	require.NoError(t, err)
	assert.Equal(t, sampleTable, string(data))
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := Summary{
		Stats:     demux.Stats{Pairs: 10, Recorded: 7, Malformed: 1, NoCellMatch: 2},
		Rows:      3,
		Tolerance: 1,
		CellIndex: "bktree",
		TagIndex:  "expand",
	}
	require.NoError(t, WriteSummary(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(10), got["read_pairs"])
	assert.Equal(t, float64(7), got["recorded_pairs"])
	assert.Equal(t, float64(1), got["malformed_pairs"])
	assert.Equal(t, float64(3), got["barcode_multiseq_pairs"])
	assert.Equal(t, "expand", got["multiseq_whitelist_strategy"])
}
