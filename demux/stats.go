package demux

// Stats tallies read pair outcomes over a run. Recorded, Malformed,
// NoCellMatch, NoTagMatch and NoMatch partition Pairs.
type Stats struct {
	Pairs         int64 `json:"read_pairs"`
	Recorded      int64 `json:"recorded_pairs"`
	Malformed     int64 `json:"malformed_pairs"`
	NoCellMatch   int64 `json:"cell_barcode_mismatches"`
	NoTagMatch    int64 `json:"multiseq_mismatches"`
	NoMatch       int64 `json:"both_mismatches"`
	CellCorrected int64 `json:"cell_barcodes_corrected"`
	TagCorrected  int64 `json:"multiseq_corrected"`
}

// Observe counts the result of one Engine.Process call. Any error counts
// the pair as malformed.
func (s *Stats) Observe(res Result, err error) {
	s.Pairs++
	if err != nil {
		s.Malformed++
		return
	}
	switch res.Outcome {
	case Recorded:
		s.Recorded++
	case NoCellMatch:
		s.NoCellMatch++
	case NoTagMatch:
		s.NoTagMatch++
	case NoMatch:
		s.NoMatch++
	}
	if res.CellCorrected {
		s.CellCorrected++
	}
	if res.TagCorrected {
		s.TagCorrected++
	}
}

// Add folds the counters of o into s.
func (s *Stats) Add(o Stats) {
	s.Pairs += o.Pairs
	s.Recorded += o.Recorded
	s.Malformed += o.Malformed
	s.NoCellMatch += o.NoCellMatch
	s.NoTagMatch += o.NoTagMatch
	s.NoMatch += o.NoMatch
	s.CellCorrected += o.CellCorrected
	s.TagCorrected += o.TagCorrected
}

// Dropped returns the number of pairs that were not recorded.
func (s Stats) Dropped() int64 {
	return s.Pairs - s.Recorded
}
