package auth

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultAcceptThreshold     = 90.0
	DefaultBorderlineThreshold = 70.0
	DefaultRequiredSamples     = 3
	DefaultPhrase              = "Access Granted"
)

// Config holds the verification policy
type Config struct {
	AcceptThreshold     float64  `mapstructure:"accept_threshold" yaml:"accept_threshold"`
	BorderlineThreshold float64  `mapstructure:"borderline_threshold" yaml:"borderline_threshold"`
	RequiredSamples     int      `mapstructure:"required_samples" yaml:"required_samples"`
	Strategy            Strategy `mapstructure:"strategy" yaml:"strategy"`
	Phrase              string   `mapstructure:"phrase" yaml:"phrase"`
}

// DefaultConfig returns the default policy
func DefaultConfig() Config {
	return Config{
		AcceptThreshold:     DefaultAcceptThreshold,
		BorderlineThreshold: DefaultBorderlineThreshold,
		RequiredSamples:     DefaultRequiredSamples,
		Strategy:            StrategyNewest,
		Phrase:              DefaultPhrase,
	}
}

// Validate checks thresholds are ordered within [0, 100]
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"accept_threshold":     c.AcceptThreshold,
		"borderline_threshold": c.BorderlineThreshold,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return fmt.Errorf("auth: %s must be in [0, 100], got %v", name, v)
		}
	}
	if c.BorderlineThreshold > c.AcceptThreshold {
		return fmt.Errorf("auth: borderline_threshold %v exceeds accept_threshold %v",
			c.BorderlineThreshold, c.AcceptThreshold)
	}
	if c.RequiredSamples < 1 {
		return fmt.Errorf("auth: required_samples must be at least 1, got %d", c.RequiredSamples)
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.AcceptThreshold == 0 && c.BorderlineThreshold == 0 {
		c.AcceptThreshold = d.AcceptThreshold
		c.BorderlineThreshold = d.BorderlineThreshold
	}
	if c.RequiredSamples == 0 {
		c.RequiredSamples = d.RequiredSamples
	}
	c.Strategy = Strategy(strings.ToLower(string(c.Strategy)))
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if strings.TrimSpace(c.Phrase) == "" {
		c.Phrase = d.Phrase
	}
	return c
}
