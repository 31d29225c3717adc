package comanda

import (
	"regexp"
	"strconv"
	"strings"
)

// quantityPrefix matches the "<digits>x <name>" shape produced by
// FormatLines: a literal lowercase x and a single space after the digits.
var quantityPrefix = regexp.MustCompile(`^(\d+)x (.+)$`)

// ParseLine reads one display-string token back into (quantity, item name).
// Tokens without the quantity prefix count as a single implicit item; this
// is the parse-anomaly fallback and is never an error.
func ParseLine(token string) (int64, string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ""
	}
	match := quantityPrefix.FindStringSubmatch(token)
	if match == nil {
		return 1, token
	}
	qty, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || qty <= 0 {
		return 1, token
	}
	return qty, match[2]
}

// CountItems accumulates a comanda display string into per-item sale counts.
// Tokens are separated by commas or newlines.
func CountItems(counts map[string]int64, items string) {
	for _, token := range splitTokens(items) {
		qty, name := ParseLine(token)
		if name == "" {
			continue
		}
		counts[name] += qty
	}
}

func splitTokens(items string) []string {
	return strings.FieldsFunc(items, func(r rune) bool {
		return r == ',' || r == '\n'
	})
}
