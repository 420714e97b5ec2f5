// Package whitelist matches observed barcodes against a fixed set of valid
// barcodes, optionally tolerating a bounded number of substitutions.
//
// A tolerant match always returns an entry of the whitelist, never the
// observed sequence, so near misses collapse onto whitelist identity. When
// several entries lie within tolerance, the nearest one wins and equal
// distances resolve to the lexicographically smallest entry. All search
// strategies honour that rule, so they are interchangeable.
package whitelist

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Strategy selects how tolerant lookups search the whitelist.
type Strategy string

const (
	// StrategyAuto expands small whitelists and builds a BK-tree otherwise.
	StrategyAuto Strategy = "auto"
	// StrategyScan compares the candidate with every entry.
	StrategyScan Strategy = "scan"
	// StrategyBKTree searches a BK-tree keyed by hamming distance.
	StrategyBKTree Strategy = "bktree"
	// StrategyExpand precomputes every variant within tolerance.
	StrategyExpand Strategy = "expand"
)

// maxExpandVariants bounds the size of an expanded variant table.
const maxExpandVariants = 1 << 22

var (
	// ErrEmpty is returned when a whitelist holds no barcodes.
	ErrEmpty = errors.New("whitelist is empty")
	// ErrMixedWidth is returned when whitelist entries differ in length.
	ErrMixedWidth = errors.New("whitelist entries differ in width")
)

// ParseStrategy converts a strategy name, as given on the command line.
// The empty string selects StrategyAuto.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyAuto, nil
	case StrategyAuto, StrategyScan, StrategyBKTree, StrategyExpand:
		return st, nil
	}
	return "", errors.Errorf("unknown whitelist strategy %q", s)
}

// Options controls how an Index prepares for tolerant lookups.
type Options struct {
	Strategy Strategy

	// Tolerance the index is prepared for. Lookups with a larger tolerance
	// still work but cannot use an expanded variant table.
	Tolerance int
}

// Index is an immutable whitelist of equal-width barcodes. It is safe for
// concurrent use.
type Index struct {
	set     map[string]struct{}
	entries []string // sorted
	width   int

	strategy          Strategy
	tree              *bkTree
	expanded          map[string]expansion
	expandedTolerance int
}

// New builds an Index from entries. Entries are trimmed of surrounding
// whitespace, blank entries are skipped and duplicates collapse.
func New(entries []string, opts Options) (*Index, error) {
	idx := &Index{set: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := idx.set[e]; dup {
			continue
		}
		if idx.width == 0 {
			idx.width = len(e)
		} else if len(e) != idx.width {
			return nil, errors.Wrapf(ErrMixedWidth, "%q has width %d, expected %d", e, len(e), idx.width)
		}
		idx.set[e] = struct{}{}
		idx.entries = append(idx.entries, e)
	}
	if len(idx.entries) == 0 {
		return nil, ErrEmpty
	}
	sort.Strings(idx.entries)

	if err := idx.prepare(opts); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) prepare(opts Options) error {
	if opts.Tolerance < 0 {
		return errors.Errorf("negative tolerance %d", opts.Tolerance)
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}
	expandable := opts.Tolerance > 0 && allEntriesSubstitutable(idx.entries)
	fits := estimateVariants(idx.width, opts.Tolerance) <= maxExpandVariants/len(idx.entries)

	if strategy == StrategyAuto {
		switch {
		case opts.Tolerance == 0:
			strategy = StrategyScan
		case expandable && fits:
			strategy = StrategyExpand
		default:
			strategy = StrategyBKTree
		}
	}

	switch strategy {
	case StrategyScan:
	case StrategyBKTree:
		idx.tree = newBKTree(idx.entries)
	case StrategyExpand:
		if opts.Tolerance > 0 && !expandable {
			return errors.New("expand strategy needs whitelist entries over ACGTN")
		}
		if !fits {
			return errors.Errorf("expand strategy would exceed %d variants at width %d and tolerance %d",
				maxExpandVariants, idx.width, opts.Tolerance)
		}
		idx.expanded = expand(idx.entries, opts.Tolerance)
		idx.expandedTolerance = opts.Tolerance
	default:
		return errors.Errorf("unknown whitelist strategy %q", strategy)
	}
	idx.strategy = strategy
	return nil
}

func allEntriesSubstitutable(entries []string) bool {
	for _, e := range entries {
		if !allSubstitutable(e) {
			return false
		}
	}
	return true
}

// Load reads one barcode per line from r.
func Load(r io.Reader, opts Options) (*Index, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read whitelist")
	}
	return New(entries, opts)
}

// LoadFile reads a whitelist file, decompressing it if needed.
func LoadFile(path string, opts Options) (*Index, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open whitelist %s", path)
	}
	defer fh.Close()

	idx, err := Load(fh, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "whitelist %s", path)
	}
	return idx, nil
}

// Resolve returns the whitelist entry candidate matches. An exact member is
// returned as is; otherwise, if tolerance allows, the nearest entry within
// tolerance substitutions is returned. ok is false when nothing matches.
func (idx *Index) Resolve(candidate string, tolerance int) (canonical string, ok bool) {
	if _, member := idx.set[candidate]; member {
		return candidate, true
	}
	if tolerance <= 0 || len(candidate) != idx.width {
		return "", false
	}

	if idx.expanded != nil && tolerance <= idx.expandedTolerance && allSubstitutable(candidate) {
		m, found := idx.expanded[candidate]
		if !found || m.dist > tolerance {
			return "", false
		}
		return m.canonical, true
	}
	if idx.tree != nil {
		match, _, found := idx.tree.search(candidate, tolerance)
		return match, found
	}
	return idx.scan(candidate, tolerance)
}

// scan walks the sorted entries, keeping the first entry at the smallest
// distance seen so far.
func (idx *Index) scan(candidate string, tolerance int) (string, bool) {
	var best string
	found := false
	limit := tolerance
	for _, e := range idx.entries {
		d, ok := hammingWithin(e, candidate, limit)
		if !ok {
			continue
		}
		best, found = e, true
		if d <= 1 {
			break
		}
		limit = d - 1
	}
	return best, found
}

// Contains reports whether s is exactly a whitelist entry.
func (idx *Index) Contains(s string) bool {
	_, ok := idx.set[s]
	return ok
}

// Len returns the number of distinct entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Width returns the shared length of all entries.
func (idx *Index) Width() int { return idx.width }

// Strategy returns the search strategy the index settled on.
func (idx *Index) Strategy() Strategy { return idx.strategy }

// Entries returns the entries in lexicographic order.
func (idx *Index) Entries() []string {
	out := make([]string, len(idx.entries))
	copy(out, idx.entries)
	return out
}
