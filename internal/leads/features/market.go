package features

import (
	"fmt"
	"strings"
	"time"

	"leadqual_backend/internal/leads/domain"
)

// currentInterestRate is the static mortgage-rate level used until a real
// rates feed is wired in.
const currentInterestRate = 6.5

// marketProfile describes static market conditions for a location segment.
type marketProfile struct {
	inventory    float64
	daysOnMarket int
	priceTrend   float64
	competition  float64
}

// marketProfiles uses the same keyword ordering as the price table:
// "suburban" before "urban".
var marketProfiles = []struct {
	keyword string
	profile marketProfile
}{
	{"downtown", marketProfile{0.30, 25, 0.40, 0.90}},
	{"suburban", marketProfile{0.50, 35, 0.20, 0.60}},
	{"urban", marketProfile{0.40, 30, 0.30, 0.75}},
	{"rural", marketProfile{0.80, 75, -0.10, 0.25}},
	{"luxury", marketProfile{0.70, 90, 0.10, 0.40}},
}

var generalProfile = marketProfile{
	inventory:    0.50,
	daysOnMarket: 45,
	priceTrend:   0.10,
	competition:  0.50,
}

// seasonalFactors tracks buyer activity through the year: spring and early
// summer peak, holidays trough. Derived deterministically from the month.
var seasonalFactors = map[time.Month]float64{
	time.January:   0.4,
	time.February:  0.5,
	time.March:     0.7,
	time.April:     0.9,
	time.May:       1.0,
	time.June:      1.0,
	time.July:      0.9,
	time.August:    0.8,
	time.September: 0.7,
	time.October:   0.6,
	time.November:  0.4,
	time.December:  0.3,
}

// extractMarket builds the market record for a normalized location.
// Any failure falls back to the fixed default record; this never fails.
func (e *Engineer) extractMarket(normalizedLocation string) (feats domain.MarketFeatures) {
	defer func() {
		if r := recover(); r != nil {
			if e.log != nil {
				e.log.Error("market feature extraction failed", "panic", fmt.Sprint(r))
			}
			feats = DefaultMarketFeatures()
		}
	}()

	profile := generalProfile
	for _, entry := range marketProfiles {
		if strings.Contains(normalizedLocation, entry.keyword) {
			profile = entry.profile
			break
		}
	}

	feats = domain.MarketFeatures{
		InventoryLevel:      profile.inventory,
		AverageDaysOnMarket: profile.daysOnMarket,
		PriceTrend:          profile.priceTrend,
		SeasonalFactor:      seasonalFactors[e.now().Month()],
		CompetitionLevel:    profile.competition,
		InterestRateLevel:   currentInterestRate,
	}
	return feats
}

// DefaultMarketFeatures is the fixed record substituted when market
// extraction cannot run at all.
func DefaultMarketFeatures() domain.MarketFeatures {
	return domain.MarketFeatures{
		InventoryLevel:      generalProfile.inventory,
		AverageDaysOnMarket: generalProfile.daysOnMarket,
		PriceTrend:          generalProfile.priceTrend,
		SeasonalFactor:      0.7,
		CompetitionLevel:    generalProfile.competition,
		InterestRateLevel:   currentInterestRate,
	}
}
