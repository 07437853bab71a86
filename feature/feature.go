package feature

// Locatable is anything anchored to an inclusive span [Start, End] on a contig.
// Coordinates are 1-based.
type Locatable interface {
	Contig() string
	Start() int64
	End() int64
}

// Overlaps reports whether two spans on the same contig share at least one base.
func Overlaps(a, b Locatable) bool {
	return a.Contig() == b.Contig() && a.Start() <= b.End() && b.Start() <= a.End()
}
