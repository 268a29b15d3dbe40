package features

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"leadqual_backend/internal/leads/domain"
)

const (
	// Response times beyond an hour tell us nothing extra about engagement.
	maxAvgResponseSeconds = 3600.0

	// Three urgency keyword hits saturate the urgency score.
	urgencyMatchCap = 3

	// Five locality indicators saturate location specificity.
	localityIndicatorCap = 5
)

// urgencyKeywords are explicit time-pressure phrases in the lead's own words.
var urgencyKeywords = []string{
	"asap",
	"urgent",
	"immediately",
	"right away",
	"as soon as possible",
	"this week",
	"quickly",
	"deadline",
	"time sensitive",
}

// lifeEventPhrases signal a forced timeline (relocation, lease expiry,
// family change). These outrank generic urgency words.
var lifeEventPhrases = []string{
	"relocating",
	"relocation",
	"job transfer",
	"new job",
	"starting a job",
	"divorce",
	"separation",
	"lease ending",
	"lease is ending",
	"lease is up",
	"lease expires",
	"expecting",
	"baby on the way",
	"growing family",
	"downsizing",
	"retiring",
	"retirement",
	"before the school year",
}

// localityIndicators are words that show the lead thinks about a concrete
// area rather than "somewhere nice".
var localityIndicators = []string{
	"school",
	"district",
	"zip",
	"commute",
	"neighborhood",
	"near",
	"close to",
	"walkable",
	"transit",
	"downtown",
	"park",
}

var positiveWords = []string{
	"love", "great", "perfect", "excited", "amazing", "wonderful",
	"ideal", "beautiful", "definitely", "interested", "fantastic",
	"yes", "thanks", "thank",
}

var negativeWords = []string{
	"not", "no", "unfortunately", "problem", "worried", "concerned",
	"expensive", "bad", "difficult", "maybe", "unsure", "doubt",
	"disappointed", "hesitant",
}

// priceMentionPattern matches common budget formats: "$500,000", "$1.2m",
// "500k", "500 thousand", "1.5 million".
var priceMentionPattern = regexp.MustCompile(`(?i)\$\s*\d{1,3}(?:,\d{3})+(?:\.\d+)?|\$\s*\d+(?:\.\d+)?\s*(?:k|m)?\b|\b\d+(?:\.\d+)?\s*(?:k|m|thousand|million|mil)\b`)

// extractConversation computes the full conversational feature record.
// A panic anywhere inside extraction is converted to the documented
// neutral defaults; this method never fails.
func (e *Engineer) extractConversation(conv domain.ConversationContext) (feats domain.ConversationFeatures) {
	defer func() {
		if r := recover(); r != nil {
			if e.log != nil {
				e.log.Error("conversation feature extraction failed", "panic", fmt.Sprint(r))
			}
			feats = fallbackConversationFeatures(conv)
		}
	}()

	userText := strings.ToLower(conv.UserText())
	messageCount := len(conv.Messages)

	durationMinutes := e.conversationDuration(conv.CreatedAt)
	avgResponse := 0.0
	if messageCount > 0 {
		avgResponse = math.Min(durationMinutes*60/float64(messageCount), maxAvgResponseSeconds)
	}

	variance, mean := messageLengthStats(conv.Messages)

	budgetRatio, budgetConfidence := budgetToMarketRatio(conv.Preferences)

	feats = domain.ConversationFeatures{
		MessageCount:                messageCount,
		AvgResponseTime:             avgResponse,
		ConversationDurationMinutes: durationMinutes,
		OverallSentiment:            sentimentScore(userText),
		UrgencyScore:                urgencyScore(userText),
		EngagementScore:             engagementScore(conv.Messages),
		QuestionFrequency:           questionFrequency(conv.Messages),
		PriceMentionCount:           len(priceMentionPattern.FindAllString(userText, -1)),
		TimelineUrgencySignals:      countPhrases(userText, lifeEventPhrases),
		LocationSpecificity:         locationSpecificity(userText),
		BudgetToMarketRatio:         budgetRatio,
		BudgetConfidence:            budgetConfidence,
		QualificationCompleteness:   float64(conv.Preferences.PresentCount()) / float64(len(domain.QualificationFields)),
		MissingCriticalInfo:         conv.Preferences.MissingFields(),
		MessageLengthVariance:       variance,
		ResponseConsistency:         responseConsistency(variance, mean),
		// Per-message timestamps are not available in the conversation
		// schema yet, so the behavioral time-of-day flags stay false.
		WeekendActivity:   false,
		LateNightActivity: false,
	}
	return feats
}

// fallbackConversationFeatures is the documented fail-open record: neutral
// mid-range scores for the soft signals, zero for everything counted.
func fallbackConversationFeatures(conv domain.ConversationContext) domain.ConversationFeatures {
	return domain.ConversationFeatures{
		MessageCount:              len(conv.Messages),
		OverallSentiment:          0,
		UrgencyScore:              0.5,
		EngagementScore:           0.5,
		QualificationCompleteness: 0,
		MissingCriticalInfo:       conv.Preferences.MissingFields(),
		ResponseConsistency:       0.5,
	}
}

// conversationDuration is wall-clock minutes from the conversation's
// created_at to now, clamped non-negative. Malformed timestamps read as
// "now", yielding zero duration rather than an error.
func (e *Engineer) conversationDuration(createdAt string) float64 {
	started := parseTimestamp(createdAt, e.now)
	minutes := e.now().Sub(started).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// parseTimestamp parses ISO-8601 with or without an offset, tolerating a
// trailing Z, and defaults to now on failure.
func parseTimestamp(value string, now func() time.Time) time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return now()
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	// Some sources emit a naive timestamp with a literal Z suffix.
	if stripped, ok := strings.CutSuffix(trimmed, "Z"); ok {
		if ts, err := time.Parse("2006-01-02T15:04:05", stripped); err == nil {
			return ts
		}
	}
	return now()
}

// sentimentScore is a lexicon polarity score over the lead's own words,
// in [-1, 1].
func sentimentScore(userText string) float64 {
	if userText == "" {
		return 0
	}
	positives := countWords(userText, positiveWords)
	negatives := countWords(userText, negativeWords)
	total := positives + negatives
	if total == 0 {
		return 0
	}
	return float64(positives-negatives) / float64(total)
}

// urgencyScore normalizes urgency keyword hits: three or more hits read
// as maximum urgency.
func urgencyScore(userText string) float64 {
	matches := 0
	for _, keyword := range urgencyKeywords {
		matches += strings.Count(userText, keyword)
	}
	if matches > urgencyMatchCap {
		matches = urgencyMatchCap
	}
	return float64(matches) / float64(urgencyMatchCap)
}

// engagementScore combines question density with average message length,
// capped at 1. Leads who ask substantial questions are engaged.
func engagementScore(messages []domain.Message) float64 {
	userMessages := 0
	questions := 0
	totalLength := 0
	for _, msg := range messages {
		if !msg.IsUser() {
			continue
		}
		userMessages++
		questions += strings.Count(msg.Content, "?")
		totalLength += len(msg.Content)
	}
	if userMessages == 0 {
		return 0
	}

	questionDensity := float64(questions) / float64(userMessages)
	avgLength := float64(totalLength) / float64(userMessages)

	score := 0.6*math.Min(1, questionDensity*2) + 0.4*math.Min(1, avgLength/160)
	return math.Min(1, score)
}

// questionFrequency is question marks per user message.
func questionFrequency(messages []domain.Message) float64 {
	userMessages := 0
	questions := 0
	for _, msg := range messages {
		if !msg.IsUser() {
			continue
		}
		userMessages++
		questions += strings.Count(msg.Content, "?")
	}
	if userMessages == 0 {
		return 0
	}
	return float64(questions) / float64(userMessages)
}

// locationSpecificity counts locality indicators, saturating at five.
func locationSpecificity(userText string) float64 {
	return math.Min(1, float64(countPhrases(userText, localityIndicators))/float64(localityIndicatorCap))
}

func messageLengthStats(messages []domain.Message) (variance, mean float64) {
	if len(messages) == 0 {
		return 0, 0
	}
	total := 0.0
	for _, msg := range messages {
		total += float64(len(msg.Content))
	}
	mean = total / float64(len(messages))

	sumSquares := 0.0
	for _, msg := range messages {
		diff := float64(len(msg.Content)) - mean
		sumSquares += diff * diff
	}
	variance = sumSquares / float64(len(messages))
	return variance, mean
}

// responseConsistency maps length variance onto [0, 1]: erratic message
// lengths read as inconsistent engagement.
func responseConsistency(variance, mean float64) float64 {
	if mean <= 0 {
		return 0.5
	}
	normalized := math.Min(1, variance/(mean*mean+1))
	return 1 - normalized
}

// countPhrases counts distinct phrases present in the text, once each.
func countPhrases(text string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			count++
		}
	}
	return count
}

// countWords counts occurrences of lexicon words as whole tokens.
func countWords(text string, words []string) int {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '\'')
	})
	lexicon := make(map[string]bool, len(words))
	for _, w := range words {
		lexicon[w] = true
	}
	count := 0
	for _, token := range tokens {
		if lexicon[token] {
			count++
		}
	}
	return count
}
