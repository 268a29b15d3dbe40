package domain

import (
	"time"

	"github.com/google/uuid"
)

// PriorityLevel ranks leads for agent attention, highest first.
type PriorityLevel string

const (
	PriorityCritical PriorityLevel = "CRITICAL"
	PriorityHigh     PriorityLevel = "HIGH"
	PriorityMedium   PriorityLevel = "MEDIUM"
	PriorityLow      PriorityLevel = "LOW"
	PriorityCold     PriorityLevel = "COLD"
)

// Priority thresholds on the overall priority score. The bands are
// exhaustive and non-overlapping: every score maps to exactly one level.
const (
	criticalThreshold = 90.0
	highThreshold     = 75.0
	mediumThreshold   = 50.0
	lowThreshold      = 25.0
)

// PriorityFor maps an overall priority score to its level.
func PriorityFor(score float64) PriorityLevel {
	switch {
	case score >= criticalThreshold:
		return PriorityCritical
	case score >= highThreshold:
		return PriorityHigh
	case score >= mediumThreshold:
		return PriorityMedium
	case score >= lowThreshold:
		return PriorityLow
	default:
		return PriorityCold
	}
}

// Rank returns the ordering weight of the level, higher meaning more urgent.
func (p PriorityLevel) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// PredictiveScore is the top-level scoring output for one lead at one
// point in time. It is created once per scoring call and never mutated.
type PredictiveScore struct {
	LeadID                       uuid.UUID     `json:"leadId"`
	QualificationScore           int           `json:"qualificationScore"`     // 0-7
	QualificationPercentage      int           `json:"qualificationPercentage"` // 0-100
	ClosingProbability           float64       `json:"closingProbability"`     // [0, 1]
	ConfidenceLow                float64       `json:"confidenceLow"`
	ConfidenceHigh               float64       `json:"confidenceHigh"`
	EngagementScore              float64       `json:"engagementScore"` // 0-100
	UrgencyScore                 float64       `json:"urgencyScore"`    // 0-100
	RiskScore                    float64       `json:"riskScore"`       // 0-100
	OverallPriorityScore         float64       `json:"overallPriorityScore"` // 0-100
	PriorityLevel                PriorityLevel `json:"priorityLevel"`
	RiskFactors                  []string      `json:"riskFactors"`
	PositiveSignals              []string      `json:"positiveSignals"`
	RecommendedActions           []string      `json:"recommendedActions"` // most urgent first
	OptimalContactTiming         string        `json:"optimalContactTiming"`
	TimeInvestmentRecommendation string        `json:"timeInvestmentRecommendation"`
	EstimatedRevenuePotential    float64       `json:"estimatedRevenuePotential"` // currency units, >= 0
	EffortEfficiencyScore        float64       `json:"effortEfficiencyScore"`     // currency per hour
	ModelConfidence              float64       `json:"modelConfidence"`           // [0, 1]
	Degraded                     bool          `json:"degraded"`
	ScoredAt                     time.Time     `json:"scoredAt"`
}

// EngagementTrend classifies how a conversation's intensity is moving.
type EngagementTrend string

const (
	TrendIncreasing EngagementTrend = "increasing"
	TrendStable     EngagementTrend = "stable"
	TrendDeclining  EngagementTrend = "declining"
)

// EffortLevel is the categorical agent-effort recommendation.
type EffortLevel string

const (
	EffortMinimal   EffortLevel = "minimal"
	EffortStandard  EffortLevel = "standard"
	EffortIntensive EffortLevel = "intensive"
)

// LeadInsights is the secondary, display-oriented analysis produced from
// the same feature set as PredictiveScore.
type LeadInsights struct {
	LeadID                      uuid.UUID       `json:"leadId"`
	EngagementTrend             EngagementTrend `json:"engagementTrend"`
	ConversationQualityScore    float64         `json:"conversationQualityScore"` // 0-100
	EstimatedTimeToCloseDays    int             `json:"estimatedTimeToCloseDays"` // > 0
	ProbabilityOfChurn          float64         `json:"probabilityOfChurn"`       // [0, 1]
	RecommendedEffortLevel      EffortLevel     `json:"recommendedEffortLevel"`
	NextBestAction              string          `json:"nextBestAction"`
	OptimalCommunicationChannel string          `json:"optimalCommunicationChannel"`
	RecommendedFollowUpInterval string          `json:"recommendedFollowUpInterval"`
	GeneratedAt                 time.Time       `json:"generatedAt"`
}
