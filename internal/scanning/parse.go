package scanning

import (
	"regexp"
	"strconv"
	"strings"
)

// totalPattern matches a total-style keyword followed later on the same line
// by a number with 1-5 digits before the decimal point and exactly two after.
// Intervening non-numeric characters (currency symbols, colons, spaces) are
// allowed between keyword and number.
var totalPattern = regexp.MustCompile(`(?i)(?:total|grand total|amount due|balance|subtotal).*?(\d{1,5}\.\d{2})`)

// ParseTotal extracts the most likely grand total from raw recognized text.
//
// Each line is matched against totalPattern (first occurrence per line) and
// the matches are collected top to bottom. The LAST candidate wins: receipts
// typically list Subtotal before tax lines before Grand Total, so the last
// keyword-matched amount on the page is most often the true payable total.
//
// Returns 0.0 when no line matches. There is deliberately no
// largest-number-on-the-page fallback: tip suggestions, item counts and phone
// numbers all look like prices, so a zero result tells the caller to ask for
// manual entry instead of guessing. Amounts without exactly two decimal
// digits never match, and digit groups containing commas are not recognized.
func ParseTotal(text string) float64 {
	var candidates []float64

	for _, line := range strings.Split(text, "\n") {
		match := totalPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		amount, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, amount)
	}

	if len(candidates) == 0 {
		return 0.0
	}
	return candidates[len(candidates)-1]
}
