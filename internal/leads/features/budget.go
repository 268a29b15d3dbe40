package features

import (
	"regexp"
	"strconv"
	"strings"

	"leadqual_backend/internal/leads/domain"
)

// defaultMarketPrice is used when the stated location matches none of the
// known market segments.
const defaultMarketPrice = 650000.0

// marketPriceTable maps location keywords to typical sale prices.
// Ordered: "suburban" must be checked before "urban" since the latter is
// a substring of the former.
var marketPriceTable = []struct {
	keyword string
	price   float64
}{
	{"downtown", 850000},
	{"suburban", 650000},
	{"urban", 720000},
	{"rural", 450000},
	{"luxury", 1250000},
}

// marketPriceFor returns the typical price for a location by keyword
// substring match.
func marketPriceFor(location string) float64 {
	loc := strings.ToLower(location)
	for _, entry := range marketPriceTable {
		if strings.Contains(loc, entry.keyword) {
			return entry.price
		}
	}
	return defaultMarketPrice
}

// budgetToMarketRatio parses the stated budget and relates it to the
// market price of the stated location. It fails closed: an unparseable
// budget yields a nil ratio and zero confidence, never an error.
func budgetToMarketRatio(prefs domain.Preferences) (*float64, float64) {
	value, confidence := parseBudget(prefs.Budget)
	if value <= 0 {
		return nil, 0
	}
	ratio := value / marketPriceFor(prefs.Location)
	return &ratio, confidence
}

// EstimatedPropertyValue is the best available transaction-size estimate
// for a lead: the parsed budget, or the typical market price of the
// stated location when the budget is absent or unparseable. Always > 0.
func EstimatedPropertyValue(prefs domain.Preferences) float64 {
	if value, _ := parseBudget(prefs.Budget); value > 0 {
		return value
	}
	return marketPriceFor(prefs.Location)
}

// budgetPattern captures an amount plus an optional scale suffix:
// "$500,000", "500k", "0.5m", "500 thousand", "1.5 million", "750000".
var budgetPattern = regexp.MustCompile(`(\$)?\s*(\d(?:[\d,]*)(?:\.\d+)?)\s*(k|m|thousand|million|mil)?\b`)

// parseBudget turns a human budget string into a currency amount and a
// confidence in that parse. Returns (0, 0) when nothing numeric can be
// recovered; it never fails.
func parseBudget(raw string) (float64, float64) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return 0, 0
	}

	match := budgetPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, 0
	}
	dollar, amount, suffix := match[1], match[2], match[3]

	value, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, 0
	}

	switch suffix {
	case "k", "thousand":
		value *= 1_000
	case "m", "mil", "million":
		value *= 1_000_000
	}

	// An explicit currency marker or scale suffix is a confident parse;
	// a bare number could still be square footage or a typo.
	if dollar != "" || suffix != "" {
		return value, 0.9
	}
	return value, 0.7
}
