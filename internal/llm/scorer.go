package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/model"
	"github.com/meridianhq/eventrecon/internal/service"
)

// Config holds configuration for the model-backed scorer.
type Config struct {
	Provider    string // "openai" or "azure"
	BaseURL     string
	APIKey      string
	Model       string
	APIVersion  string // azure only
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Scorer implements the engine's CandidateScorer and Analyst contracts
// using a model provider. Every failure path surfaces as
// common.ErrScoringUnavailable so the engine can switch to its
// deterministic fallback; the scorer itself never guesses.
type Scorer struct {
	client      Client
	cache       *scoreCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   service.RetryOptions
}

// NewScorer creates a model-backed scorer.
func NewScorer(cfg Config, logger *slog.Logger) (*Scorer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		client, err = newOpenAIClient(cfg)
	case "azure":
		client, err = newAzureOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Scorer{
		client:      client,
		cache:       newScoreCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}, nil
}

// ScoreCandidate asks the model to judge one expense/candidate pair.
func (s *Scorer) ScoreCandidate(ctx context.Context, expense model.Expense, tx model.Transaction) (model.CandidateScore, error) {
	key := expense.Hash() + ":" + tx.Hash()
	if cached, found := s.cache.get(key); found {
		s.logger.Debug("score cache hit",
			"expense", expense.ID,
			"candidate", tx.ExternalID)
		return cached, nil
	}

	if err := s.rateLimiter.wait(ctx); err != nil {
		return model.CandidateScore{}, fmt.Errorf("%w: %v", common.ErrScoringUnavailable, err)
	}

	prompt := buildScorePrompt(expense, tx)

	var response ScoreResponse
	err := common.WithRetry(ctx, func() error {
		resp, err := s.client.ScoreCandidate(ctx, prompt)
		if err != nil {
			s.logger.Warn("candidate scoring attempt failed",
				"expense", expense.ID,
				"candidate", tx.ExternalID,
				"error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		response = resp
		return nil
	}, s.retryOpts)
	if err != nil {
		return model.CandidateScore{}, fmt.Errorf("%w: %v", common.ErrScoringUnavailable, err)
	}

	score := model.CandidateScore{
		Criteria:   response.Criteria,
		Confidence: response.Confidence,
		Reasoning:  response.Reasoning,
	}
	s.cache.set(key, score)

	s.logger.Debug("candidate scored",
		"expense", expense.ID,
		"candidate", tx.ExternalID,
		"confidence", score.Confidence)

	return score, nil
}

// AnalyzeReconciliation asks the model for the overall cross-system
// judgment. The per-system facts of the summary are filled locally; only
// the qualitative fields come from the model.
func (s *Scorer) AnalyzeReconciliation(ctx context.Context, expense model.Expense, card, expenseSystem model.MatchOutcome) (model.OverallAnalysis, error) {
	if err := s.rateLimiter.wait(ctx); err != nil {
		return model.OverallAnalysis{}, fmt.Errorf("%w: %v", common.ErrScoringUnavailable, err)
	}

	prompt := buildAnalysisPrompt(expense, card, expenseSystem)

	var response AnalysisResponse
	err := common.WithRetry(ctx, func() error {
		resp, err := s.client.AnalyzeReconciliation(ctx, prompt)
		if err != nil {
			s.logger.Warn("overall analysis attempt failed",
				"expense", expense.ID,
				"error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}
		response = resp
		return nil
	}, s.retryOpts)
	if err != nil {
		return model.OverallAnalysis{}, fmt.Errorf("%w: %v", common.ErrScoringUnavailable, err)
	}

	reasoning := response.Reasoning
	if len(response.Concerns) > 0 {
		reasoning += " Concerns: " + strings.Join(response.Concerns, "; ")
	}

	return model.OverallAnalysis{
		Confidence: response.Confidence,
		Reasoning:  reasoning,
		Summary: model.CriteriaSummary{
			HasCardMatch:            card.Matched(),
			HasExpenseSystemMatch:   expenseSystem.Matched(),
			CardConfidence:          card.Confidence,
			ExpenseSystemConfidence: expenseSystem.Confidence,
			CrossSystemConsistency:  response.CrossSystemConsistency,
			OverallQuality:          response.OverallQuality,
		},
	}, nil
}

// Close stops background goroutines and cleans up resources.
func (s *Scorer) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	return nil
}

// buildScorePrompt creates the prompt for one expense/candidate pair.
func buildScorePrompt(expense model.Expense, tx model.Transaction) string {
	return fmt.Sprintf(`EXPENSE TO MATCH:
Amount: %s %s
Date: %s
Vendor: %s
Description: %s
Category: %s

CANDIDATE TRANSACTION (%s):
Amount: %s %s
Date: %s
Vendor: %s
Description: %s
Transaction ID: %s

Judge whether the candidate is the same real-world expense. Consider:
1. Amount similarity (within reasonable tolerance)
2. Date proximity (within a few days)
3. Vendor name similarity (variations, abbreviations, truncated card descriptors)
4. Currency (must match exactly)
5. Description context

Return a JSON object:
{
    "confidence": <0.0-1.0>,
    "reasoning": "<brief explanation>",
    "criteria_scores": {
        "amount_match": <0.0-1.0>,
        "date_match": <0.0-1.0>,
        "vendor_match": <0.0-1.0>,
        "currency_match": <0.0-1.0>,
        "description_match": <0.0-1.0>
    }
}`,
		expense.Amount.String(), expense.Currency,
		expense.Date.Format("2006-01-02"),
		expense.Vendor,
		expense.Description,
		expense.Category,
		string(tx.Source),
		tx.Amount.String(), tx.Currency,
		tx.Date.Format("2006-01-02"),
		tx.Vendor,
		tx.Description,
		tx.ExternalID)
}

// buildAnalysisPrompt creates the prompt for the overall cross-system
// judgment.
func buildAnalysisPrompt(expense model.Expense, card, expenseSystem model.MatchOutcome) string {
	return fmt.Sprintf(`EXPENSE ITEM:
Amount: %s %s
Date: %s
Vendor: %s
Description: %s

CARD FEED MATCH:
%s

EXPENSE SYSTEM MATCH:
%s

Assess the overall quality of this reconciliation. Matches in both
systems increase confidence; inconsistency between them is a red flag.

Return a JSON object:
{
    "confidence": <0.0-1.0>,
    "criteria": {
        "cross_system_consistency": <0.0-1.0>,
        "overall_quality": <0.0-1.0>
    },
    "reasoning": "<brief analysis>",
    "concerns": ["<any concerns>"]
}`,
		expense.Amount.String(), expense.Currency,
		expense.Date.Format("2006-01-02"),
		expense.Vendor,
		expense.Description,
		describeOutcome(card),
		describeOutcome(expenseSystem))
}

func describeOutcome(outcome model.MatchOutcome) string {
	if !outcome.Matched() {
		return "No match found"
	}
	tx := outcome.Transaction
	return fmt.Sprintf("Transaction %s: %s %s on %s at %s (confidence %.2f: %s)",
		tx.ExternalID,
		tx.Amount.String(), tx.Currency,
		tx.Date.Format("2006-01-02"),
		tx.Vendor,
		outcome.Confidence,
		outcome.Reasoning)
}
