package domain

// ConversationFeatures is the bounded, immutable feature record derived
// from one conversation snapshot. Fields hold their documented ranges
// regardless of input size; extraction is fail-open and substitutes
// neutral defaults for any signal it cannot compute.
type ConversationFeatures struct {
	MessageCount                int      `json:"messageCount"`                // >= 0
	AvgResponseTime             float64  `json:"avgResponseTime"`             // seconds, >= 0, capped at 3600
	ConversationDurationMinutes float64  `json:"conversationDurationMinutes"` // >= 0
	OverallSentiment            float64  `json:"overallSentiment"`            // [-1, 1]
	UrgencyScore                float64  `json:"urgencyScore"`                // [0, 1]
	EngagementScore             float64  `json:"engagementScore"`             // [0, 1]
	QuestionFrequency           float64  `json:"questionFrequency"`           // questions per message, >= 0
	PriceMentionCount           int      `json:"priceMentionCount"`           // >= 0
	TimelineUrgencySignals      int      `json:"timelineUrgencySignals"`      // >= 0
	LocationSpecificity         float64  `json:"locationSpecificity"`         // [0, 1]
	BudgetToMarketRatio         *float64 `json:"budgetToMarketRatio"`         // nil when budget unparseable
	BudgetConfidence            float64  `json:"budgetConfidence"`            // [0, 1]
	QualificationCompleteness   float64  `json:"qualificationCompleteness"`   // fraction of 7 fields, [0, 1]
	MissingCriticalInfo         []string `json:"missingCriticalInfo"`
	MessageLengthVariance       float64  `json:"messageLengthVariance"` // >= 0
	ResponseConsistency         float64  `json:"responseConsistency"`   // [0, 1]
	// Weekend/late-night flags stay false until the conversation schema
	// carries per-message timestamps.
	WeekendActivity   bool `json:"weekendActivity"`
	LateNightActivity bool `json:"lateNightActivity"`
}

// MarketFeatures describes market conditions for a location. Computed from
// static location profiles plus the calendar month; a fixed default record
// is substituted for unknown locations.
type MarketFeatures struct {
	InventoryLevel      float64 `json:"inventoryLevel"`      // [0, 1]
	AverageDaysOnMarket int     `json:"averageDaysOnMarket"` // > 0
	PriceTrend          float64 `json:"priceTrend"`          // [-1, 1]
	SeasonalFactor      float64 `json:"seasonalFactor"`      // [0, 1], from calendar month
	CompetitionLevel    float64 `json:"competitionLevel"`    // [0, 1]
	InterestRateLevel   float64 `json:"interestRateLevel"`   // percent
}
