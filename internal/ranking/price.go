package ranking

import (
	"strconv"
	"strings"
)

// ParsePrice extracts a numeric value from free-form price text like
// "R$ 1.299,90". Returns false when no digit sequence is present; the
// caller treats that as "price unknown", never as zero.
func ParsePrice(text string) (float64, bool) {
	// Collect the first contiguous run of digits and separators.
	var run strings.Builder
	started := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			run.WriteRune(r)
			started = true
		case (r == '.' || r == ',') && started:
			run.WriteRune(r)
		default:
			if started {
				goto done
			}
		}
	}
done:
	raw := strings.Trim(run.String(), ".,")
	if raw == "" {
		return 0, false
	}

	hasComma := strings.Contains(raw, ",")
	hasDot := strings.Contains(raw, ".")

	switch {
	case hasComma:
		// pt-BR convention: dot groups thousands, comma marks decimals.
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.Replace(raw, ",", ".", 1)
		raw = strings.ReplaceAll(raw, ",", "")
	case hasDot:
		// A single dot followed by at most two digits reads as a
		// decimal point; anything else is a thousands separator.
		idx := strings.LastIndex(raw, ".")
		if strings.Count(raw, ".") == 1 && len(raw)-idx-1 <= 2 {
			// keep as-is
		} else {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
