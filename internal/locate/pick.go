package locate

// maxHintDistance is how far (in lines) a rendered-position hint may be
// from a candidate before it is considered useless and the first-match
// fallback applies.
const maxHintDistance = 5

// Hint carries the rendered document position of the specific on-screen
// image being acted on. Line is zero-based.
type Hint struct {
	Line  int
	Valid bool
}

// NoHint is the degraded mode used when no position resolver is available.
var NoHint = Hint{}

// Pick chooses the single match an edit should apply to.
//
// With one candidate it is returned unconditionally. With several and a
// usable hint, an exact line match wins, then the nearest candidate
// within maxHintDistance lines. Otherwise the first match in document
// order is returned with ambiguous=true so the caller can warn the user
// that a best-effort choice was made. ok=false means no match at all.
func Pick(matches []Match, hint Hint) (m Match, ambiguous bool, ok bool) {
	switch len(matches) {
	case 0:
		return Match{}, false, false
	case 1:
		return matches[0], false, true
	}

	if hint.Valid {
		best := -1
		bestDist := 0
		for i, cand := range matches {
			if cand.Line == hint.Line {
				return cand, false, true
			}
			dist := cand.Line - hint.Line
			if dist < 0 {
				dist = -dist
			}
			if best < 0 || dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if bestDist <= maxHintDistance {
			return matches[best], false, true
		}
	}

	return matches[0], true, true
}
