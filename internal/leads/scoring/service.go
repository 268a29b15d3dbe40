// Package scoring implements the rule-based qualification scorer: a 0-7
// count of answered qualification questions with a classification label,
// per-field reasoning, and follow-up suggestions. It is deliberately
// simple and fully deterministic; the predictive layer fuses its output
// with the ML closing probability.
package scoring

import (
	"fmt"
	"strings"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/logger"
)

// Classification labels on the 0-7 qualification score.
const (
	ClassificationHot      = "Hot"
	ClassificationWarm     = "Warm"
	ClassificationLukewarm = "Lukewarm"
	ClassificationCold     = "Cold"
)

// MaxScore is the number of qualification questions.
var MaxScore = len(domain.QualificationFields)

// Result is one qualification pass over a conversation.
type Result struct {
	Score              int               `json:"score"` // 0-7
	MaxScore           int               `json:"maxScore"`
	Percentage         int               `json:"percentage"` // 0-100
	Classification     string            `json:"classification"`
	Reasoning          []string          `json:"reasoning"`
	RecommendedActions []string          `json:"recommendedActions"`
	FieldStatus        map[string]bool   `json:"fieldStatus"`
	FieldValues        map[string]string `json:"fieldValues,omitempty"`
}

// fieldPrompts phrase the follow-up question for each missing field.
var fieldPrompts = map[string]string{
	"budget":     "Ask about their price range and how firm it is",
	"location":   "Ask which areas or neighborhoods they are considering",
	"timeline":   "Ask when they want to move",
	"bedrooms":   "Ask how many bedrooms they need",
	"financing":  "Ask about financing and pre-approval status",
	"motivation": "Ask what is driving the move",
	"must_haves": "Ask which features are non-negotiable",
}

// Service is the traditional qualification scorer.
type Service struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Service {
	return &Service{log: log}
}

// CalculateWithReasoning scores a conversation's qualification state. It
// is total over arbitrary input: an empty conversation scores 0/Cold.
func (s *Service) CalculateWithReasoning(conv domain.ConversationContext) Result {
	fields := conv.Preferences.Fields()

	result := Result{
		MaxScore:           MaxScore,
		Reasoning:          make([]string, 0, MaxScore),
		RecommendedActions: make([]string, 0, MaxScore),
		FieldStatus:        make(map[string]bool, MaxScore),
		FieldValues:        make(map[string]string, MaxScore),
	}

	for _, field := range domain.QualificationFields {
		value := strings.TrimSpace(fields[field])
		present := value != ""
		result.FieldStatus[field] = present
		if present {
			result.Score++
			result.FieldValues[field] = value
			result.Reasoning = append(result.Reasoning, fmt.Sprintf("%s provided: %s", fieldLabel(field), value))
		} else {
			result.Reasoning = append(result.Reasoning, fieldLabel(field)+" not yet discussed")
			if prompt, ok := fieldPrompts[field]; ok {
				result.RecommendedActions = append(result.RecommendedActions, prompt)
			}
		}
	}

	result.Percentage = result.Score * 100 / MaxScore
	result.Classification = classify(result.Score)
	result.RecommendedActions = append(result.RecommendedActions, classificationAction(result.Classification))

	if s.log != nil {
		s.log.Debug("lead qualified",
			"lead_id", conv.LeadID,
			"score", result.Score,
			"max_score", result.MaxScore,
			"classification", result.Classification,
		)
	}
	return result
}

func classify(score int) string {
	switch {
	case score >= 6:
		return ClassificationHot
	case score >= 4:
		return ClassificationWarm
	case score >= 2:
		return ClassificationLukewarm
	default:
		return ClassificationCold
	}
}

func classificationAction(classification string) string {
	switch classification {
	case ClassificationHot:
		return "Fully qualified: move to property matching and showings"
	case ClassificationWarm:
		return "Close the remaining qualification gaps on the next call"
	case ClassificationLukewarm:
		return "Continue the qualification conversation before investing showing time"
	default:
		return "Start with open discovery questions to gauge intent"
	}
}

func fieldLabel(field string) string {
	switch field {
	case "must_haves":
		return "Must-haves"
	default:
		return strings.ToUpper(field[:1]) + field[1:]
	}
}
