package feature

import "strconv"

// Table is a generic tab separated record: contig, start, end (1-based, inclusive)
// followed by any number of free-form columns.
type Table struct {
	Chrom   string
	From    int64
	To      int64
	Columns []string
}

var _ Locatable = (*Table)(nil)

func (t *Table) Contig() string { return t.Chrom }
func (t *Table) Start() int64   { return t.From }
func (t *Table) End() int64     { return t.To }

func (t *Table) Name() string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

func (t *Table) String() string {
	return t.Chrom + ":" + strconv.FormatInt(t.From, 10) + "-" + strconv.FormatInt(t.To, 10)
}
