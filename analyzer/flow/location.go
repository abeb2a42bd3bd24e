package flow

import "sort"

// Location is a rational line number. Real statement locations are integer
// valued; synthetic merge/exit points sit at end_line + 0.5 of the enclosing
// control construct; ReturnJoin holds the merged return of a function call.
type Location float64

// ReturnJoin is the reserved location of the merged function return.
const ReturnJoin Location = 0

// Real returns the location of a real statement line.
func Real(line int) Location { return Location(line) }

// Merge returns the synthetic merge/exit location of a control construct
// ending at endLine.
func Merge(endLine int) Location { return Location(endLine) + 0.5 }

// IsReal reports whether the location is an integer statement line.
func (l Location) IsReal() bool { return l == Location(int(l)) }

// Display renders the location as a user-visible line number. Synthetic
// fractional locations are internal only and display as the underlying line.
func (l Location) Display() int { return int(l) }

// SortedLocations returns the keys of a definition map in ascending order.
func SortedLocations(m map[Location]Entry) []Location {
	out := make([]Location, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PickLocation selects the greatest key not exceeding line; when line is
// ReturnJoin or every key exceeds line, the greatest key overall is picked.
// The second result is false for an empty key set.
func PickLocation(keys []Location, line Location) (Location, bool) {
	if len(keys) == 0 {
		return 0, false
	}
	sorted := append([]Location(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if line == ReturnJoin || sorted[0] > line {
		return sorted[len(sorted)-1], true
	}
	target := sorted[0]
	for _, key := range sorted {
		if key > line {
			break
		}
		target = key
	}
	return target, true
}
