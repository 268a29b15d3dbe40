// Package predictive is the scoring orchestration layer. It fuses the
// rule-based qualification score, the ML closing probability, and derived
// engagement/urgency/risk sub-scores into one 0-100 priority with a tier,
// recommended actions, and revenue estimates, plus a secondary insights
// view. Both entry points are total functions: they never fail, they
// degrade.
package predictive

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/platform/logger"
)

// Composite priority weights. Convex by construction, which keeps the
// overall score inside the hull of its four inputs.
const (
	qualificationWeight = 0.25
	closingWeight       = 0.35
	engagementWeight    = 0.20
	urgencyWeight       = 0.20
)

// commissionRate approximates the agent-side take of a closed transaction.
const commissionRate = 0.025

// QualificationScorer is the traditional rule-based scorer collaborator.
type QualificationScorer interface {
	CalculateWithReasoning(conv domain.ConversationContext) scoring.Result
}

// ClosingModel scores already-extracted features into a ModelPrediction.
type ClosingModel interface {
	PredictFromFeatures(conv domain.ConversationContext, convFeats domain.ConversationFeatures, marketFeats domain.MarketFeatures) domain.ModelPrediction
}

// Service orchestrates one scoring pass per call. Stateless between
// calls; safe for concurrent use.
type Service struct {
	scorer   QualificationScorer
	model    ClosingModel
	engineer *features.Engineer
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBus publishes a LeadScored event after each scoring call.
func WithBus(bus events.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

func New(scorer QualificationScorer, model ClosingModel, engineer *features.Engineer, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		scorer:   scorer,
		model:    model,
		engineer: engineer,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculatePredictiveScore produces the full priority assessment for one
// conversation snapshot. It never fails: a panic anywhere in the pipeline
// is converted to a degraded-but-valid score that names the failure.
func (s *Service) CalculatePredictiveScore(ctx context.Context, conv domain.ConversationContext, location string) (score domain.PredictiveScore) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Error("predictive scoring degraded", "lead_id", conv.LeadID.String(), "panic", fmt.Sprint(r))
			}
			score = s.fallbackScore(conv)
		}
	}()

	convFeats := s.engineer.ConversationFeatures(ctx, conv)
	marketFeats := s.engineer.MarketFeatures(ctx, location)
	score = s.scoreFromFeatures(conv, convFeats, marketFeats)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadScored{
			BaseEvent:          events.NewBaseEvent(),
			LeadID:             score.LeadID,
			PriorityLevel:      string(score.PriorityLevel),
			PriorityScore:      score.OverallPriorityScore,
			QualificationScore: score.QualificationScore,
			ClosingProbability: score.ClosingProbability,
			ModelConfidence:    score.ModelConfidence,
			Degraded:           score.Degraded,
			Score:              score,
		})
	}
	if s.log != nil {
		s.log.LeadScored(conv.LeadID.String(), string(score.PriorityLevel), score.OverallPriorityScore, score.Degraded)
	}
	return score
}

// scoreFromFeatures runs the fusion over already-extracted features so
// insights generation can share one extraction pass.
func (s *Service) scoreFromFeatures(conv domain.ConversationContext, convFeats domain.ConversationFeatures, marketFeats domain.MarketFeatures) domain.PredictiveScore {
	qual := s.scorer.CalculateWithReasoning(conv)
	pred := s.model.PredictFromFeatures(conv, convFeats, marketFeats)

	engagement := engagementSubScore(convFeats)
	urgency := urgencySubScore(convFeats, conv.Preferences)
	risk := riskSubScore(convFeats, pred)

	priority := qualificationWeight*float64(qual.Percentage) +
		closingWeight*pred.ClosingProbability*100 +
		engagementWeight*engagement +
		urgencyWeight*urgency
	level := domain.PriorityFor(priority)

	estimatedValue := features.EstimatedPropertyValue(conv.Preferences)
	revenue := estimatedValue * commissionRate * (0.5 + pred.ClosingProbability)
	hours := effortHours(level)

	return domain.PredictiveScore{
		LeadID:                       conv.LeadID,
		QualificationScore:           qual.Score,
		QualificationPercentage:      qual.Percentage,
		ClosingProbability:           pred.ClosingProbability,
		ConfidenceLow:                pred.ConfidenceLow,
		ConfidenceHigh:               pred.ConfidenceHigh,
		EngagementScore:              engagement,
		UrgencyScore:                 urgency,
		RiskScore:                    risk,
		OverallPriorityScore:         priority,
		PriorityLevel:                level,
		RiskFactors:                  pred.RiskFactors,
		PositiveSignals:              pred.PositiveSignals,
		RecommendedActions:           recommendedActions(level, qual, pred),
		OptimalContactTiming:         contactTiming(level, urgency),
		TimeInvestmentRecommendation: timeInvestment(level, hours),
		EstimatedRevenuePotential:    revenue,
		EffortEfficiencyScore:        revenue / hours,
		ModelConfidence:              pred.ModelConfidence,
		ScoredAt:                     s.now(),
	}
}

// fallbackScore is the degraded path: qualification counting is pure
// arithmetic over the preferences and cannot fail, everything model- or
// feature-derived takes its documented neutral value.
func (s *Service) fallbackScore(conv domain.ConversationContext) domain.PredictiveScore {
	qualScore := conv.Preferences.PresentCount()
	qualPct := qualScore * 100 / len(domain.QualificationFields)
	priority := float64(qualPct) * 0.5
	level := domain.PriorityFor(priority)

	return domain.PredictiveScore{
		LeadID:                  conv.LeadID,
		QualificationScore:      qualScore,
		QualificationPercentage: qualPct,
		ClosingProbability:      0.3,
		ConfidenceLow:           0.1,
		ConfidenceHigh:          0.5,
		EngagementScore:         50,
		UrgencyScore:            50,
		RiskScore:               70,
		OverallPriorityScore:    priority,
		PriorityLevel:           level,
		RiskFactors: []string{
			"Scoring pipeline degraded: ML model unavailable, using qualification-only fallback",
		},
		RecommendedActions:           []string{"Review this lead manually", "Retry scoring once the pipeline recovers"},
		OptimalContactTiming:         contactTiming(level, 50),
		TimeInvestmentRecommendation: timeInvestment(level, effortHours(level)),
		EstimatedRevenuePotential:    features.EstimatedPropertyValue(conv.Preferences) * commissionRate * 0.8,
		EffortEfficiencyScore:        features.EstimatedPropertyValue(conv.Preferences) * commissionRate * 0.8 / effortHours(level),
		ModelConfidence:              0.1,
		Degraded:                     true,
		ScoredAt:                     s.now(),
	}
}

// engagementSubScore maps conversational engagement signals onto 0-100.
func engagementSubScore(f domain.ConversationFeatures) float64 {
	score := 0.5*f.EngagementScore +
		0.3*(f.OverallSentiment+1)/2 +
		0.2*math.Min(1, f.QuestionFrequency)
	return clamp01(score) * 100
}

// urgencySubScore starts from the engineered urgency and boosts it for
// explicit timeline language the lead has committed to.
func urgencySubScore(f domain.ConversationFeatures, prefs domain.Preferences) float64 {
	score := f.UrgencyScore
	score += 0.1 * math.Min(2, float64(f.TimelineUrgencySignals))
	score += timelineBoost(prefs.Timeline)
	return clamp01(score) * 100
}

// riskSubScore is inverse to qualification and engagement: well-qualified,
// well-engaged leads score low risk. Model risk factors add on top.
func riskSubScore(f domain.ConversationFeatures, pred domain.ModelPrediction) float64 {
	risk := 70.0
	risk -= f.QualificationCompleteness * 40
	risk -= f.EngagementScore * 25
	risk += math.Min(4, float64(len(pred.RiskFactors))) * 5
	return math.Min(100, math.Max(0, risk))
}

// timelineBoost rewards a committed move-in timeline beyond whatever
// urgency language already surfaced in the messages.
func timelineBoost(timeline string) float64 {
	t := strings.ToLower(strings.TrimSpace(timeline))
	switch {
	case t == "":
		return 0
	case strings.Contains(t, "asap"), strings.Contains(t, "immediate"), strings.Contains(t, "week"):
		return 0.3
	case strings.Contains(t, "year"), strings.Contains(t, "someday"), strings.Contains(t, "no rush"):
		return 0
	case strings.Contains(t, "month"):
		return 0.2
	default:
		return 0.1
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
