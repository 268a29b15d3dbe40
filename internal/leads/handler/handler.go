package handler

import (
	"net/http"
	"strconv"
	"time"

	"leadqual_backend/internal/leads/features"
	"leadqual_backend/internal/leads/model"
	"leadqual_backend/internal/leads/predictive"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/training"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/platform/httpkit"
	"leadqual_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgStorageDisabled  = "score storage not configured"
)

type Handler struct {
	predictive *predictive.Service
	model      *model.Model
	trainer    *training.Service
	engineer   *features.Engineer
	repo       *repository.Repository // nil in scoring-only mode
	val        *validator.Validator
}

func New(predictiveSvc *predictive.Service, mdl *model.Model, trainer *training.Service, engineer *features.Engineer, repo *repository.Repository, val *validator.Validator) *Handler {
	return &Handler{
		predictive: predictiveSvc,
		model:      mdl,
		trainer:    trainer,
		engineer:   engineer,
		repo:       repo,
		val:        val,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/score", h.Score)
	rg.POST("/insights", h.Insights)
	rg.POST("/outcomes", h.RecordOutcome)
	rg.GET("/model/status", h.ModelStatus)
	rg.GET("/model/metrics", h.ModelMetrics)
	rg.POST("/model/train", h.Train)
	rg.POST("/model/train-synthetic", h.TrainSynthetic)
	rg.GET("/scores/top", h.TopLeads)
	rg.GET("/scores/:leadId", h.LatestScore)
}

func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	score := h.predictive.CalculatePredictiveScore(c.Request.Context(), req.Conversation(), scoreLocation(req))
	httpkit.OK(c, score)
}

func (h *Handler) Insights(c *gin.Context) {
	var req transport.ScoreLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	insights := h.predictive.GenerateLeadInsights(c.Request.Context(), req.Conversation(), scoreLocation(req))
	httpkit.OK(c, insights)
}

// RecordOutcome stores a labeled observation. The conversation is
// vectorized with the current feature ordering at write time so training
// can consume rows without re-extracting.
func (h *Handler) RecordOutcome(c *gin.Context) {
	if h.repo == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	var req transport.RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ctx := c.Request.Context()
	conv := req.Conversation()
	location := req.Location
	if location == "" {
		location = req.Preferences.Location
	}
	convFeats := h.engineer.ConversationFeatures(ctx, conv)
	marketFeats := h.engineer.MarketFeatures(ctx, location)

	outcome := repository.TrainingOutcome{
		ID:         uuid.New(),
		LeadID:     req.LeadID,
		Features:   features.Vector(convFeats, marketFeats),
		Closed:     req.Closed,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.repo.RecordOutcome(ctx, outcome); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{"id": outcome.ID, "leadId": outcome.LeadID, "closed": outcome.Closed})
}

func (h *Handler) ModelStatus(c *gin.Context) {
	httpkit.OK(c, gin.H{
		"trained":      h.model.IsTrained(),
		"featureCount": features.FeatureCount(),
	})
}

func (h *Handler) ModelMetrics(c *gin.Context) {
	metrics := h.model.GetModelPerformance()
	if metrics == nil {
		httpkit.Error(c, http.StatusNotFound, "model has not been trained", nil)
		return
	}
	httpkit.OK(c, metrics)
}

func (h *Handler) Train(c *gin.Context) {
	var req transport.TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	metrics, err := h.trainer.TrainFromOutcomes(c.Request.Context(), model.TrainOptions{
		ValidationSplit: req.ValidationSplit,
		RandomState:     req.RandomState,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}

func (h *Handler) TrainSynthetic(c *gin.Context) {
	var req transport.TrainSyntheticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	metrics, err := h.trainer.TrainSynthetic(c.Request.Context(), req.Samples, req.PositiveRate, req.RandomState)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}

func (h *Handler) TopLeads(c *gin.Context) {
	if h.repo == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	snapshots, err := h.repo.ListTopLeads(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": snapshots, "count": len(snapshots)})
}

func (h *Handler) LatestScore(c *gin.Context) {
	if h.repo == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, msgStorageDisabled, nil)
		return
	}

	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	snap, err := h.repo.LatestSnapshot(c.Request.Context(), leadID)
	if err == repository.ErrNotFound {
		httpkit.Error(c, http.StatusNotFound, "no score recorded for lead", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, snap)
}

// scoreLocation prefers the explicit location hint over the one learned
// from the conversation.
func scoreLocation(req transport.ScoreLeadRequest) string {
	if req.Location != "" {
		return req.Location
	}
	return req.Preferences.Location
}
