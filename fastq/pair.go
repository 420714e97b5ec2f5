// Package fastq reads the sequence lines of two FASTQ files in lock-step.
package fastq

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Unexpected bases are left to the whitelists to reject.
	seq.ValidateSeq = false
}

// PairReader yields the sequences of synchronized records from a read 1
// and a read 2 FASTQ file. Files may be compressed.
type PairReader struct {
	r1, r2    *fastx.Reader
	name1     string
	name2     string
	pairs     int64
	exhausted bool
}

// Open opens both FASTQ files. "-" reads standard input.
func Open(read1, read2 string) (*PairReader, error) {
	if read1 == "-" && read2 == "-" {
		return nil, errors.New("only one of read 1 and read 2 can be read from stdin")
	}
	r1, err := fastx.NewReader(seq.DNAredundant, read1, "")
	if err != nil {
		return nil, errors.Wrapf(err, "open read 1 %s", read1)
	}
	r2, err := fastx.NewReader(seq.DNAredundant, read2, "")
	if err != nil {
		r1.Close()
		return nil, errors.Wrapf(err, "open read 2 %s", read2)
	}
	return &PairReader{r1: r1, r2: r2, name1: read1, name2: read2}, nil
}

// Next returns the trimmed sequences of the next record pair. It returns
// io.EOF as soon as either file runs out; if only one did, the leftover
// records of the other are ignored with a warning. An incomplete final
// record ends its file like io.EOF does.
func (p *PairReader) Next() (r1, r2 string, err error) {
	if p.exhausted {
		return "", "", io.EOF
	}
	rec1, err1 := p.r1.Read()
	end1, err1 := p.ended(p.name1, err1)
	if err1 != nil {
		return "", "", errors.Wrapf(err1, "parse %s", p.name1)
	}
	rec2, err2 := p.r2.Read()
	end2, err2 := p.ended(p.name2, err2)
	if err2 != nil {
		return "", "", errors.Wrapf(err2, "parse %s", p.name2)
	}

	if end1 || end2 {
		p.exhausted = true
		if end1 != end2 {
			shorter, longer := p.name1, p.name2
			if end2 {
				shorter, longer = p.name2, p.name1
			}
			log.WithFields(log.Fields{
				"ended":  shorter,
				"unread": longer,
				"pairs":  p.pairs,
			}).Warn("read files have different record counts, stopping at the shorter one")
		}
		return "", "", io.EOF
	}

	p.pairs++
	return sequence(rec1), sequence(rec2), nil
}

// ended reports whether err marks the end of a file. fastx only reports
// unequal sequence and quality lengths for the last record of a stream;
// earlier ones are merged with the next record or fail as a bad format.
func (p *PairReader) ended(name string, err error) (bool, error) {
	switch err {
	case nil:
		return false, nil
	case io.EOF:
		return true, nil
	case fastx.ErrUnequalSeqAndQual:
		log.WithFields(log.Fields{
			"file":  name,
			"pairs": p.pairs,
		}).Warn("ignoring incomplete final record")
		return true, nil
	}
	return false, err
}

// Pairs returns the number of pairs returned so far.
func (p *PairReader) Pairs() int64 {
	return p.pairs
}

// Close closes both files.
func (p *PairReader) Close() {
	p.r1.Close()
	p.r2.Close()
}

func sequence(rec *fastx.Record) string {
	if rec == nil || rec.Seq == nil {
		return ""
	}
	return strings.TrimSpace(string(rec.Seq.Seq))
}
