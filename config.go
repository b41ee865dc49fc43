package sslident

import "go.opentelemetry.io/otel/metric"

// Comparison selects how hostnames are compared against certificate
// identity values. DNS names are conventionally case insensitive, but the
// historical contract of this package compares byte for byte; callers opt
// in to folding explicitly.
type Comparison int

const (
	// ComparisonExact compares host and identity values byte for byte.
	ComparisonExact Comparison = iota
	// ComparisonFoldASCII lower-cases ASCII letters on both sides before
	// comparing, per RFC 6125 6.4.1. Non-ASCII bytes are left untouched.
	ComparisonFoldASCII
)

type config struct {
	MeterProvider metric.MeterProvider
	Compare       Comparison
	MapIDNA       bool
}

type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) {
	f(cfg)
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return optionFunc(func(cfg *config) {
		if provider != nil {
			cfg.MeterProvider = provider
		}
	})
}

// WithComparison selects the hostname comparison mode.
func WithComparison(mode Comparison) Option {
	return optionFunc(func(cfg *config) {
		cfg.Compare = mode
	})
}

// WithIDNAMapping maps host and identity values through the IDNA lookup
// profile before comparison, so that unicode hostnames match their punycode
// SAN entries. Values that fail to map are compared as-is.
func WithIDNAMapping() Option {
	return optionFunc(func(cfg *config) {
		cfg.MapIDNA = true
	})
}
