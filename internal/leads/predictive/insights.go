package predictive

import (
	"context"
	"fmt"
	"strings"

	"leadqual_backend/internal/leads/domain"
)

// GenerateLeadInsights produces the display-oriented analysis for one
// conversation snapshot. It shares a single feature extraction pass with
// the score computation and, like it, never fails.
func (s *Service) GenerateLeadInsights(ctx context.Context, conv domain.ConversationContext, location string) (insights domain.LeadInsights) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Error("insights generation degraded", "lead_id", conv.LeadID.String(), "panic", fmt.Sprint(r))
			}
			insights = s.fallbackInsights(conv)
		}
	}()

	convFeats := s.engineer.ConversationFeatures(ctx, conv)
	marketFeats := s.engineer.MarketFeatures(ctx, location)
	score := s.scoreFromFeatures(conv, convFeats, marketFeats)

	engagement := convFeats.EngagementScore
	trend := engagementTrend(conv.Messages)
	quality := conversationQuality(convFeats)

	// Higher closing probability means a shorter runway; floor of a week.
	days := int(120 - 100*score.ClosingProbability)
	if days < 7 {
		days = 7
	}

	churn := clamp01(0.8 - 0.5*engagement - 0.3*score.OverallPriorityScore/100)

	return domain.LeadInsights{
		LeadID:                      conv.LeadID,
		EngagementTrend:             trend,
		ConversationQualityScore:    quality,
		EstimatedTimeToCloseDays:    days,
		ProbabilityOfChurn:          churn,
		RecommendedEffortLevel:      effortLevel(score.OverallPriorityScore),
		NextBestAction:              nextBestAction(conv, score),
		OptimalCommunicationChannel: communicationChannel(score.UrgencyScore, engagement),
		RecommendedFollowUpInterval: followUpInterval(score.PriorityLevel),
		GeneratedAt:                 s.now(),
	}
}

func (s *Service) fallbackInsights(conv domain.ConversationContext) domain.LeadInsights {
	return domain.LeadInsights{
		LeadID:                      conv.LeadID,
		EngagementTrend:             domain.TrendStable,
		ConversationQualityScore:    50,
		EstimatedTimeToCloseDays:    90,
		ProbabilityOfChurn:          0.5,
		RecommendedEffortLevel:      domain.EffortStandard,
		NextBestAction:              "Review this lead manually",
		OptimalCommunicationChannel: "phone call",
		RecommendedFollowUpInterval: "within 3 days",
		GeneratedAt:                 s.now(),
	}
}

// engagementTrend compares conversation intensity between the first and
// last thirds of the lead's own messages: length plus question activity.
func engagementTrend(messages []domain.Message) domain.EngagementTrend {
	var user []domain.Message
	for _, msg := range messages {
		if msg.IsUser() {
			user = append(user, msg)
		}
	}
	if len(user) < 3 {
		return domain.TrendStable
	}

	third := len(user) / 3
	early := messageIntensity(user[:third])
	late := messageIntensity(user[len(user)-third:])

	switch {
	case late > early*1.2:
		return domain.TrendIncreasing
	case late < early*0.8:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// messageIntensity is mean message length with a bonus per question.
func messageIntensity(messages []domain.Message) float64 {
	if len(messages) == 0 {
		return 0
	}
	total := 0.0
	for _, msg := range messages {
		total += float64(len(msg.Content))
		total += 40 * float64(strings.Count(msg.Content, "?"))
	}
	return total / float64(len(messages))
}

// conversationQuality blends qualification progress, engagement, and tone
// into a 0-100 display score.
func conversationQuality(f domain.ConversationFeatures) float64 {
	quality := 0.4*f.QualificationCompleteness +
		0.3*f.EngagementScore +
		0.3*(f.OverallSentiment+1)/2
	return clamp01(quality) * 100
}

func effortLevel(priority float64) domain.EffortLevel {
	switch {
	case priority >= 75:
		return domain.EffortIntensive
	case priority >= 40:
		return domain.EffortStandard
	default:
		return domain.EffortMinimal
	}
}

func nextBestAction(conv domain.ConversationContext, score domain.PredictiveScore) string {
	if missing := conv.Preferences.MissingFields(); len(missing) > 0 && score.PriorityLevel != domain.PriorityCritical {
		return "Qualify the next gap: " + strings.ReplaceAll(missing[0], "_", " ")
	}
	if len(score.RecommendedActions) > 0 {
		return score.RecommendedActions[0]
	}
	return "Schedule the next touchpoint"
}

func communicationChannel(urgency, engagement float64) string {
	switch {
	case urgency >= 60:
		return "phone call"
	case engagement >= 0.6:
		return "email with curated listings"
	default:
		return "text message"
	}
}

func followUpInterval(level domain.PriorityLevel) string {
	switch level {
	case domain.PriorityCritical:
		return "same day"
	case domain.PriorityHigh:
		return "within 24 hours"
	case domain.PriorityMedium:
		return "within 3 days"
	case domain.PriorityLow:
		return "weekly"
	default:
		return "monthly"
	}
}
