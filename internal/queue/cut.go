package queue

import "fmt"

// Range is one half-open record-index interval.
type Range struct {
	Start int64
	End   int64
}

// Cut splits the inclusive range [start, end] into n contiguous half-open
// subranges whose union is exactly [start, end+1). The step is
// (end-start+1)/n; the last subrange absorbs the remainder. Errors when
// the range holds fewer records than partitions, so callers never get
// empty subranges.
func Cut(start, end int64, n int) ([]Range, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d partitions", ErrInvalidCut, n)
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: range [%d,%d]", ErrInvalidCut, start, end)
	}
	if end-start+1 < int64(n) {
		return nil, fmt.Errorf("%w: %d records cannot fill %d partitions", ErrInvalidCut, end-start+1, n)
	}

	step := (end - start + 1) / int64(n)
	ranges := make([]Range, n)
	for i := range ranges {
		ranges[i] = Range{
			Start: start + int64(i)*step,
			End:   start + int64(i+1)*step,
		}
	}
	ranges[n-1].End = end + 1

	return ranges, nil
}

// CutNth returns only the nth subrange of Cut(start, end, n).
func CutNth(start, end int64, n, nth int) (Range, error) {
	if nth < 0 || nth >= n {
		return Range{}, fmt.Errorf("%w: part %d of %d", ErrInvalidCut, nth, n)
	}
	ranges, err := Cut(start, end, n)
	if err != nil {
		return Range{}, err
	}
	return ranges[nth], nil
}
