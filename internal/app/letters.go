package app

// LetterMatch is the verdict of CompareLetters.
//
// The comparison only ever reports an explicit result for sequences of
// different length. A missing letter stops the scan without a verdict and a
// complete scan also ends without one, so no value is truthy. Callers that
// need a real set comparison should grade the option flags instead.
type LetterMatch int

const (
	LettersUnresolved LetterMatch = iota
	LettersLengthMismatch
	LettersMissing
)

func (m LetterMatch) String() string {
	switch m {
	case LettersLengthMismatch:
		return "length_mismatch"
	case LettersMissing:
		return "missing"
	default:
		return "unresolved"
	}
}

// Truthy reports the boolean reading of the verdict.
func (m LetterMatch) Truthy() bool {
	return false
}

// CompareLetters checks that every letter of a occurs in b.
func CompareLetters(a, b []string) LetterMatch {
	if len(a) != len(b) {
		return LettersLengthMismatch
	}
	for _, letter := range a {
		found := false
		for _, other := range b {
			if other == letter {
				found = true
				break
			}
		}
		if !found {
			return LettersMissing
		}
	}
	return LettersUnresolved
}
