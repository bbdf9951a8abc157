package hallucination

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/epistemia/internal/model"
)

// NumericIntent is how a claim phrases a figure
type NumericIntent string

const (
	IntentExact  NumericIntent = "EXACT"
	IntentLower  NumericIntent = "LOWER"  // "more than 500": evidence must be >= 500
	IntentUpper  NumericIntent = "UPPER"  // "under 500": evidence must be <= 500
	IntentApprox NumericIntent = "APPROX" // "about 500": evidence within 5%
)

var (
	numberPattern = regexp.MustCompile(`\b\d+(?:,\d{3})*(?:\.\d+)?\b`)

	// Checked in order; the first group with a hit decides
	intentKeywords = []struct {
		intent   NumericIntent
		keywords []string
	}{
		{IntentLower, []string{"over", "more than", "above", "at least", "exceeding", "exceeds"}},
		{IntentUpper, []string{"under", "less than", "below", "at most"}},
		{IntentApprox, []string{"about", "around", "approximately", "roughly", "approx"}},
	}

	// Verified structurally rather than by number matching
	biographicalPredicates = []string{"born", "died", "birth", "death", "founded", "established"}
)

const (
	intentWindow    = 20
	approxTolerance = 0.05
)

// checkUnsupportedSpecificity flags the first non-year figure in the claim
// that no number in the evidence satisfies under the figure's intent. Only
// whole evidence numbers count, so "5" is not found in "2015".
func checkUnsupportedSpecificity(c *model.Claim) *model.HallucinationFlag {
	if containsAny(strings.ToLower(c.Predicate), biographicalPredicates) {
		return nil
	}

	text := strings.ToLower(c.Text)
	var figures []string
	for _, n := range numberPattern.FindAllString(text, -1) {
		if !isLikelyYear(n) {
			figures = append(figures, n)
		}
	}
	if len(figures) == 0 {
		return nil
	}

	var evidenceNumbers []float64
	for _, item := range c.Evidence.All() {
		evidenceNumbers = append(evidenceNumbers, parseNumbers(numberPattern.FindAllString(item.Text(), -1))...)
	}

	for _, n := range figures {
		claimed, err := parseNumber(n)
		if err != nil {
			continue
		}
		intent := ClassifyIntent(text, n)

		if Satisfied(intent, claimed, evidenceNumbers) {
			continue
		}
		return flag(model.HallucinationUnsupportedSpecificity, 0.5,
			fmt.Sprintf("Specific figure '%s' (%s intent) not supported by evidence.", n, intent))
	}
	return nil
}

// ClassifyIntent reads the words just before the first occurrence of
// figure in text
func ClassifyIntent(text, figure string) NumericIntent {
	idx := strings.Index(text, figure)
	if idx == -1 {
		return IntentExact
	}
	context := text[max(0, idx-intentWindow):idx]

	for _, group := range intentKeywords {
		if containsAny(context, group.keywords) {
			return group.intent
		}
	}
	return IntentExact
}

// Satisfied reports whether any evidence number meets the claimed figure
func Satisfied(intent NumericIntent, claimed float64, evidence []float64) bool {
	for _, ev := range evidence {
		switch intent {
		case IntentLower:
			if ev >= claimed {
				return true
			}
		case IntentUpper:
			if ev <= claimed {
				return true
			}
		case IntentApprox:
			if ev >= (1-approxTolerance)*claimed && ev <= (1+approxTolerance)*claimed {
				return true
			}
		default:
			if ev == claimed {
				return true
			}
		}
	}
	return false
}

// isLikelyYear treats four-digit numbers from 1000 to 2099 as years
func isLikelyYear(n string) bool {
	if len(n) != 4 {
		return false
	}
	year, err := strconv.Atoi(n)
	if err != nil {
		return false
	}
	return year >= 1000 && year <= 2099
}

func parseNumber(n string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
}

func parseNumbers(raw []string) []float64 {
	out := make([]float64, 0, len(raw))
	for _, n := range raw {
		if v, err := parseNumber(n); err == nil {
			out = append(out, v)
		}
	}
	return out
}
