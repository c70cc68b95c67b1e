package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexch/msg-triage/internal/core"
	"github.com/alexch/msg-triage/internal/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxBatchSize   = 100
	maxSubjectLen  = 500
	maxSenderLen   = 200
	maxPreviewLen  = 1000
	shutdownWindow = 10 * time.Second
)

// Server exposes the triage service over a JSON HTTP API
type Server struct {
	service    *core.TriageService
	store      ports.CorrectionStore
	logger     *zap.Logger
	listenAddr string
	httpServer *http.Server
}

// NewServer creates a new HTTP API server
func NewServer(service *core.TriageService, store ports.CorrectionStore, logger *zap.Logger, listenAddr string) *Server {
	return &Server{
		service:    service,
		store:      store,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// router builds the gin engine with all routes registered.
func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/classify", s.handleClassify)
	router.POST("/correction", s.handleCorrection)
	router.GET("/model-stats", s.handleModelStats)

	return router
}

// Start starts serving requests
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := s.router()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: router,
	}

	s.logger.Info("HTTP API starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the front end
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

type messagePayload struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Preview   string `json:"preview"`
	Timestamp string `json:"timestamp"`
}

type classifyRequest struct {
	Messages []messagePayload `json:"messages"`
}

type classifyResponse struct {
	Success          bool                   `json:"success"`
	Categorized      *core.CategorizedBatch `json:"categorized"`
	Total            int                    `json:"total"`
	ProcessedAt      string                 `json:"processed_at"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
}

type correctionRequest struct {
	MessageID         string         `json:"message_id"`
	PredictedCategory string         `json:"predicted_category"`
	CorrectCategory   string         `json:"correct_category"`
	Message           messagePayload `json:"message"`
}

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Message Triage API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": gin.H{
			"health":   "/health",
			"classify": "/classify",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "Message Triage API",
		"rule_only": s.service.RuleOnly(),
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	start := time.Now()
	requestID := uuid.NewString()

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: "invalid request body: " + err.Error(),
			Code:    "INVALID_BODY",
		})
		return
	}

	messages, err := validateMessages(req.Messages)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: err.Error(),
			Code:    "VALIDATION_FAILED",
		})
		return
	}

	s.logger.Info("Classification request",
		zap.String("request_id", requestID),
		zap.Int("messages", len(messages)))

	batch := s.service.ClassifyBatch(c.Request.Context(), messages)

	c.JSON(http.StatusOK, classifyResponse{
		Success:          true,
		Categorized:      batch,
		Total:            batch.Total(),
		ProcessedAt:      time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	})
}

func (s *Server) handleCorrection(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: "invalid request body: " + err.Error(),
			Code:    "INVALID_BODY",
		})
		return
	}

	predicted, ok := core.ParseCategory(req.PredictedCategory)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: "unknown predicted_category: " + req.PredictedCategory,
			Code:    "VALIDATION_FAILED",
		})
		return
	}
	correct, ok := core.ParseCategory(req.CorrectCategory)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: "unknown correct_category: " + req.CorrectCategory,
			Code:    "VALIDATION_FAILED",
		})
		return
	}

	correction := &core.Correction{
		MessageID: req.MessageID,
		Timestamp: time.Now().UTC(),
		Predicted: predicted,
		Correct:   correct,
		Snapshot: core.MessageSnapshot{
			Subject: req.Message.Subject,
			Sender:  req.Message.Sender,
			Preview: req.Message.Preview,
		},
	}

	if err := s.store.Record(c.Request.Context(), correction); err != nil {
		s.logger.Error("Failed to record correction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   true,
			Message: "failed to record correction",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	stats, err := s.store.Statistics(c.Request.Context())
	total := 0
	if err == nil {
		for _, count := range stats {
			total += count
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Correction recorded. Model will improve over time.",
		"total_corrections": total,
	})
}

func (s *Server) handleModelStats(c *gin.Context) {
	ctx := c.Request.Context()

	accuracy, err := s.store.AccuracyEstimate(ctx)
	if err != nil {
		s.logger.Error("Failed to compute accuracy estimate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   true,
			Message: "failed to compute model statistics",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	mistakes, err := s.store.CommonMistakes(ctx, 10)
	if err != nil {
		s.logger.Error("Failed to aggregate common mistakes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   true,
			Message: "failed to compute model statistics",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	stats, err := s.store.Statistics(ctx)
	if err != nil {
		s.logger.Error("Failed to read statistics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   true,
			Message: "failed to compute model statistics",
			Code:    "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"accuracy":            accuracy,
		"common_mistakes":     mistakes,
		"feedback_statistics": stats,
	})
}

// validateMessages enforces the request contract: 1..100 messages,
// subject/sender non-empty after trimming, bounded field lengths.
func validateMessages(payloads []messagePayload) ([]*core.Message, error) {
	if len(payloads) == 0 {
		return nil, errors.New("at least one message is required")
	}
	if len(payloads) > maxBatchSize {
		return nil, errors.New("maximum 100 messages allowed per request")
	}

	messages := make([]*core.Message, 0, len(payloads))
	for i, p := range payloads {
		subject := strings.TrimSpace(p.Subject)
		sender := strings.TrimSpace(p.Sender)
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("message %d: id is required", i)
		case subject == "":
			return nil, fmt.Errorf("message %d: subject cannot be empty", i)
		case sender == "":
			return nil, fmt.Errorf("message %d: sender cannot be empty", i)
		case len(subject) > maxSubjectLen:
			return nil, fmt.Errorf("message %d: subject exceeds %d characters", i, maxSubjectLen)
		case len(sender) > maxSenderLen:
			return nil, fmt.Errorf("message %d: sender exceeds %d characters", i, maxSenderLen)
		case len(p.Preview) > maxPreviewLen:
			return nil, fmt.Errorf("message %d: preview exceeds %d characters", i, maxPreviewLen)
		}

		messages = append(messages, &core.Message{
			ID:        p.ID,
			Subject:   subject,
			Sender:    sender,
			Preview:   p.Preview,
			Timestamp: p.Timestamp,
		})
	}
	return messages, nil
}
