package lineindex

// Ring is a half-open range [Start, End) over a ring of length Mod; End
// may be numerically less than Start, denoting a range that wraps past
// Mod-1 back to 0. Used for the active/prefetch windows in C4 (design
// note §9).
type Ring struct {
	Start, End, Mod int
}

// Len reports the number of line IDs covered.
func (r Ring) Len() int {
	if r.Mod <= 0 {
		return 0
	}
	if r.Start < r.End {
		return r.End - r.Start
	}
	return (r.Mod - r.Start) + r.End
}

// Iter yields [Start, Mod) ++ [0, End) when the range wraps, or the plain
// [Start, End) otherwise. Start == End denotes a full ring (length Mod),
// matching the source's strict "start < end" branch test.
func (r Ring) Iter() []int {
	if r.Mod <= 0 {
		return nil
	}
	out := make([]int, 0, r.Len())
	if r.Start < r.End {
		for i := r.Start; i < r.End; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := r.Start; i < r.Mod; i++ {
		out = append(out, i)
	}
	for i := 0; i < r.End; i++ {
		out = append(out, i)
	}
	return out
}

// Disjoint reports whether r and o share no line IDs, assuming both share
// the same Mod.
func (r Ring) Disjoint(o Ring) bool {
	seen := make(map[int]struct{}, r.Len())
	for _, i := range r.Iter() {
		seen[i] = struct{}{}
	}
	for _, i := range o.Iter() {
		if _, ok := seen[i]; ok {
			return false
		}
	}
	return true
}
