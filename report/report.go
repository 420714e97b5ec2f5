// Package report writes the UMI count table and the run summary.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"

	"github.com/noamteyssier/DeMultiSeq/aggregate"
	"github.com/noamteyssier/DeMultiSeq/demux"
)

// Header is the first line of the count table.
const Header = "Barcode\tMultiseq\tnUMI"

// WriteTSV writes the header and one line per row, in the order given.
func WriteTSV(w io.Writer, rows []aggregate.Row) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(bw, "%s\t%s\t%d\n", r.Barcode, r.Tag, r.UMIs); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteStore sorts the rows of store by barcode and tag and writes them.
func WriteStore(w io.Writer, store *aggregate.Store) error {
	rows := store.Rows()
	aggregate.SortRows(rows)
	return WriteTSV(w, rows)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type snappyFile struct {
	*snappy.Writer
	fh *os.File
}

func (s snappyFile) Close() error {
	if err := s.Writer.Close(); err != nil {
		s.fh.Close()
		return err
	}
	return s.fh.Close()
}

// Create opens the report destination. An empty path or "-" is standard
// output, a ".sz" suffix writes snappy framed data and anything else goes
// through xopen, which compresses by suffix (".gz", ".xz").
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if strings.HasSuffix(path, ".sz") {
		fh, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", path)
		}
		return snappyFile{Writer: snappy.NewBufferedWriter(fh), fh: fh}, nil
	}
	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return w, nil
}

// WriteFile writes the sorted count table of store to path.
func WriteFile(path string, store *aggregate.Store) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	if err := WriteStore(w, store); err != nil {
		w.Close()
		return errors.Wrapf(err, "write report %s", path)
	}
	return errors.Wrapf(w.Close(), "close report %s", path)
}

// Summary is the JSON run summary.
type Summary struct {
	demux.Stats
	Rows      int    `json:"barcode_multiseq_pairs"`
	Tolerance int    `json:"tolerance"`
	CellIndex string `json:"cell_whitelist_strategy"`
	TagIndex  string `json:"multiseq_whitelist_strategy"`
}

// WriteSummary writes s as indented JSON to path.
func WriteSummary(path string, s Summary) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create summary %s", path)
	}
	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		fh.Close()
		return errors.Wrapf(err, "write summary %s", path)
	}
	return errors.Wrapf(fh.Close(), "close summary %s", path)
}
