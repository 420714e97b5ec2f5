// Package demux assigns read pairs to cell barcodes and MULTI-seq sample
// tags and collects distinct UMIs for every assignment.
package demux

import (
	"github.com/pkg/errors"

	"github.com/noamteyssier/DeMultiSeq/aggregate"
	"github.com/noamteyssier/DeMultiSeq/extract"
	"github.com/noamteyssier/DeMultiSeq/whitelist"
)

// Outcome says what happened to a single read pair.
type Outcome int

const (
	// Recorded pairs matched both whitelists.
	Recorded Outcome = iota
	// NoCellMatch pairs had a tag match but no cell barcode match.
	NoCellMatch
	// NoTagMatch pairs had a cell barcode match but no tag match.
	NoTagMatch
	// NoMatch pairs matched neither whitelist.
	NoMatch
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case NoCellMatch:
		return "no cell barcode match"
	case NoTagMatch:
		return "no multiseq match"
	case NoMatch:
		return "no match"
	}
	return "unknown"
}

// Result describes how a read pair was resolved. A side is corrected when it
// matched a whitelist entry within tolerance rather than exactly.
type Result struct {
	Outcome       Outcome
	CellCorrected bool
	TagCorrected  bool
}

// Options configures an Engine.
type Options struct {
	// Maximum hamming distance accepted for both the cell barcode and
	// the tag.
	Tolerance int
	Layout    extract.Layout
}

// Engine resolves read pairs against a cell barcode whitelist and a tag
// whitelist. It keeps no per-run state and is safe for concurrent use as
// long as each goroutine records into its own store.
type Engine struct {
	cells     *whitelist.Index
	tags      *whitelist.Index
	tolerance int
	layout    extract.Layout
}

// NewEngine checks that the whitelists agree with the read layout.
func NewEngine(cells, tags *whitelist.Index, opts Options) (*Engine, error) {
	if cells == nil || tags == nil {
		return nil, errors.New("both whitelists are required")
	}
	if opts.Tolerance < 0 {
		return nil, errors.Errorf("negative tolerance %d", opts.Tolerance)
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if cells.Width() != opts.Layout.BarcodeWidth {
		return nil, errors.Errorf("cell barcode whitelist has width %d, reads carry %d base barcodes",
			cells.Width(), opts.Layout.BarcodeWidth)
	}
	if tags.Width() != opts.Layout.TagWidth {
		return nil, errors.Errorf("multiseq whitelist has width %d, tag size is %d",
			tags.Width(), opts.Layout.TagWidth)
	}
	return &Engine{
		cells:     cells,
		tags:      tags,
		tolerance: opts.Tolerance,
		layout:    opts.Layout,
	}, nil
}

// Tolerance returns the maximum accepted hamming distance.
func (e *Engine) Tolerance() int { return e.tolerance }

// Layout returns the read layout fields are extracted with.
func (e *Engine) Layout() extract.Layout { return e.layout }

// Process extracts the cell barcode and UMI from r1 and the tag from r2,
// resolves both barcodes and, only when both resolve, records the UMI under
// the canonical whitelist entries. A pair that does not match is dropped
// silently; a sequence too short for the layout returns an error wrapping
// extract.ErrShortRead and leaves store untouched.
func (e *Engine) Process(store *aggregate.Store, r1, r2 string) (Result, error) {
	barcode, umi, err := e.layout.R1(r1)
	if err != nil {
		return Result{}, errors.Wrap(err, "read 1")
	}
	tag, err := e.layout.R2(r2)
	if err != nil {
		return Result{}, errors.Wrap(err, "read 2")
	}

	cell, cellOK := e.cells.Resolve(barcode, e.tolerance)
	sample, tagOK := e.tags.Resolve(tag, e.tolerance)

	res := Result{
		CellCorrected: cellOK && cell != barcode,
		TagCorrected:  tagOK && sample != tag,
	}
	switch {
	case cellOK && tagOK:
		res.Outcome = Recorded
		store.Record(cell, sample, umi)
	case tagOK:
		res.Outcome = NoCellMatch
	case cellOK:
		res.Outcome = NoTagMatch
	default:
		res.Outcome = NoMatch
	}
	return res, nil
}
