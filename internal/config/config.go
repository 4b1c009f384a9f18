// Package config resolves the matching, scoring, and model-scorer
// policies from viper and expands user-supplied paths. Defaults live
// with the packages that own them; this layer only applies overrides.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/meridianhq/eventrecon/internal/common"
	"github.com/meridianhq/eventrecon/internal/engine"
	"github.com/meridianhq/eventrecon/internal/llm"
	"github.com/meridianhq/eventrecon/internal/score"
)

// Matching returns the engine policy, with viper overrides applied on top
// of the defaults. Keys live under "matching.".
func Matching() engine.Config {
	cfg := engine.DefaultConfig()

	if viper.IsSet("matching.acceptance_floor") {
		cfg.AcceptanceFloor = viper.GetFloat64("matching.acceptance_floor")
	}
	if viper.IsSet("matching.agreement_boost") {
		cfg.AgreementBoost = viper.GetFloat64("matching.agreement_boost")
	}
	if viper.IsSet("matching.isolation_penalty") {
		cfg.IsolationPenalty = viper.GetFloat64("matching.isolation_penalty")
	}
	if viper.IsSet("matching.confirm_threshold") {
		cfg.ConfirmThreshold = viper.GetFloat64("matching.confirm_threshold")
	}
	if viper.IsSet("matching.review_threshold") {
		cfg.ReviewThreshold = viper.GetFloat64("matching.review_threshold")
	}

	return cfg
}

// Scoring returns the deterministic scoring policy, with viper overrides
// applied on top of the defaults. Keys live under "scoring.".
func Scoring() score.Config {
	cfg := score.DefaultConfig()

	if viper.IsSet("scoring.amount_tolerance") {
		cfg.AmountTolerance = viper.GetFloat64("scoring.amount_tolerance")
	}
	if viper.IsSet("scoring.date_tolerance_days") {
		cfg.DateToleranceDays = viper.GetInt("scoring.date_tolerance_days")
	}
	if viper.IsSet("scoring.vendor_floor") {
		cfg.VendorFloor = viper.GetFloat64("scoring.vendor_floor")
	}
	if viper.IsSet("scoring.weights.amount") {
		cfg.Weights.Amount = viper.GetFloat64("scoring.weights.amount")
	}
	if viper.IsSet("scoring.weights.date") {
		cfg.Weights.Date = viper.GetFloat64("scoring.weights.date")
	}
	if viper.IsSet("scoring.weights.vendor") {
		cfg.Weights.Vendor = viper.GetFloat64("scoring.weights.vendor")
	}
	if viper.IsSet("scoring.weights.currency") {
		cfg.Weights.Currency = viper.GetFloat64("scoring.weights.currency")
	}

	return cfg
}

// ModelScorer returns the model-backed scorer configuration. The second
// return value is false when no scorer is configured, in which case the
// engine runs on the deterministic path alone. Keys live under "model.".
func ModelScorer() (llm.Config, bool, error) {
	if !viper.GetBool("model.enabled") {
		return llm.Config{}, false, nil
	}

	cfg := llm.Config{
		Provider:    viper.GetString("model.provider"),
		BaseURL:     viper.GetString("model.base_url"),
		APIKey:      viper.GetString("model.api_key"),
		Model:       viper.GetString("model.name"),
		APIVersion:  viper.GetString("model.api_version"),
		MaxRetries:  viper.GetInt("model.max_retries"),
		RetryDelay:  viper.GetDuration("model.retry_delay"),
		CacheTTL:    viper.GetDuration("model.cache_ttl"),
		RateLimit:   viper.GetInt("model.rate_limit"),
		Temperature: viper.GetFloat64("model.temperature"),
		MaxTokens:   viper.GetInt("model.max_tokens"),
		Timeout:     viper.GetDuration("model.timeout"),
	}

	if cfg.APIKey == "" {
		return llm.Config{}, false, common.ErrMissingConfig
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return cfg, true, nil
}

// DatabasePath resolves the result database location, with tilde and
// environment variables expanded.
func DatabasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/eventrecon/eventrecon.db"
	}
	return ExpandPath(dbPath)
}
