// Package extract slices fixed-width fields out of read sequences.
package extract

import (
	"github.com/pkg/errors"
)

// Default field widths of the MULTI-seq read layout: a 16 base cell barcode
// followed by a 10 base UMI on read 1, an 8 base sample tag on read 2.
const (
	DefaultBarcodeWidth = 16
	DefaultUMIWidth     = 10
	DefaultTagWidth     = 8
)

// ErrShortRead is returned when a sequence ends before a field does.
var ErrShortRead = errors.New("sequence shorter than field layout")

// Cursor walks a sequence left to right, handing out consecutive fields.
type Cursor struct {
	seq string
	pos int
}

// NewCursor returns a Cursor positioned at the start of seq.
func NewCursor(seq string) *Cursor {
	return &Cursor{seq: seq}
}

// Next returns the next width characters and advances past them.
func (c *Cursor) Next(width int) (string, error) {
	if width < 0 {
		return "", errors.Errorf("negative field width %d", width)
	}
	end := c.pos + width
	if end > len(c.seq) {
		return "", errors.Wrapf(ErrShortRead, "need %d bases at offset %d, have %d", width, c.pos, len(c.seq)-c.pos)
	}
	field := c.seq[c.pos:end]
	c.pos = end
	return field, nil
}

// Remaining returns the number of characters not yet consumed.
func (c *Cursor) Remaining() int {
	return len(c.seq) - c.pos
}

// Layout is the field widths of a read pair.
type Layout struct {
	BarcodeWidth int
	UMIWidth     int
	TagWidth     int
}

// DefaultLayout returns the 16+10 / 8 layout.
func DefaultLayout() Layout {
	return Layout{
		BarcodeWidth: DefaultBarcodeWidth,
		UMIWidth:     DefaultUMIWidth,
		TagWidth:     DefaultTagWidth,
	}
}

// Validate checks that every width is positive.
func (l Layout) Validate() error {
	if l.BarcodeWidth <= 0 || l.UMIWidth <= 0 || l.TagWidth <= 0 {
		return errors.Errorf("field widths must be positive: barcode %d, umi %d, tag %d",
			l.BarcodeWidth, l.UMIWidth, l.TagWidth)
	}
	return nil
}

// R1 extracts the cell barcode and the UMI, in that order, from a read 1
// sequence. Bases past the UMI are ignored.
func (l Layout) R1(seq string) (barcode, umi string, err error) {
	c := NewCursor(seq)
	if barcode, err = c.Next(l.BarcodeWidth); err != nil {
		return "", "", errors.Wrap(err, "cell barcode")
	}
	if umi, err = c.Next(l.UMIWidth); err != nil {
		return "", "", errors.Wrap(err, "umi")
	}
	return barcode, umi, nil
}

// R2 extracts the sample tag from the start of a read 2 sequence.
func (l Layout) R2(seq string) (tag string, err error) {
	tag, err = NewCursor(seq).Next(l.TagWidth)
	if err != nil {
		return "", errors.Wrap(err, "multiseq tag")
	}
	return tag, nil
}
