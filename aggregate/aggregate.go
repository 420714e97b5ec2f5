// Package aggregate counts distinct UMIs per cell barcode and sample tag.
package aggregate

import "sort"

// Row is one line of the count table.
type Row struct {
	Barcode string
	Tag     string
	UMIs    int
}

type umiSet map[string]struct{}

// Store maps cell barcode -> tag -> set of UMIs. A Store is not safe for
// concurrent use; sharded runs give every worker its own Store and Merge
// them afterwards.
type Store struct {
	data map[string]map[string]umiSet
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: make(map[string]map[string]umiSet)}
}

// Record adds umi to the set for (barcode, tag). Recording a UMI that is
// already present is a no-op.
func (s *Store) Record(barcode, tag, umi string) {
	tags, ok := s.data[barcode]
	if !ok {
		tags = make(map[string]umiSet)
		s.data[barcode] = tags
	}
	umis, ok := tags[tag]
	if !ok {
		umis = make(umiSet)
		tags[tag] = umis
	}
	umis[umi] = struct{}{}
}

// Count returns the number of distinct UMIs recorded for (barcode, tag).
func (s *Store) Count(barcode, tag string) int {
	return len(s.data[barcode][tag])
}

// Len returns the number of (barcode, tag) pairs with at least one UMI.
func (s *Store) Len() int {
	n := 0
	for _, tags := range s.data {
		n += len(tags)
	}
	return n
}

// Range calls fn for every (barcode, tag) pair in unspecified order until
// fn returns false.
func (s *Store) Range(fn func(Row) bool) {
	for barcode, tags := range s.data {
		for tag, umis := range tags {
			if !fn(Row{Barcode: barcode, Tag: tag, UMIs: len(umis)}) {
				return
			}
		}
	}
}

// Rows returns every (barcode, tag) pair in unspecified order. Use SortRows
// for a stable order.
func (s *Store) Rows() []Row {
	rows := make([]Row, 0, s.Len())
	s.Range(func(r Row) bool {
		rows = append(rows, r)
		return true
	})
	return rows
}

// Merge adds every UMI recorded in other to s.
func (s *Store) Merge(other *Store) {
	for barcode, tags := range other.data {
		for tag, umis := range tags {
			for umi := range umis {
				s.Record(barcode, tag, umi)
			}
		}
	}
}

// SortRows orders rows by barcode, then tag.
func SortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Barcode != rows[j].Barcode {
			return rows[i].Barcode < rows[j].Barcode
		}
		return rows[i].Tag < rows[j].Tag
	})
}
