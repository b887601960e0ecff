package ecommerce

import (
	"errors"
	"strings"
	"time"
)

const (
	// BigCommerceProductionAPIURL is the BigCommerce REST API host
	BigCommerceProductionAPIURL = "https://api.bigcommerce.com"
	// ShopifyDefaultAPIVersion is the Admin API version requested from Shopify
	ShopifyDefaultAPIVersion = "2025-01"

	defaultTimeoutSeconds = 30
)

// Errors for adapter configuration
var (
	ErrConfigInvalidTimeout = errors.New("ecommerce: timeout must not be negative")
	ErrConfigInvalidRate    = errors.New("ecommerce: requests per second must not be negative")
)

// Config holds settings shared by all platform adapters
type Config struct {
	// TimeoutSeconds bounds each platform HTTP call
	TimeoutSeconds int
	// RequestsPerSecond paces page requests within one sync (0 = unlimited)
	RequestsPerSecond float64
	// BigCommerceAPIBaseURL overrides the BigCommerce API host
	BigCommerceAPIBaseURL string
	// ShopifyAPIVersion is the Admin API version segment
	ShopifyAPIVersion string
	// UserAgent is sent on every platform request
	UserAgent string
}

// DefaultConfig returns adapter settings with production defaults
func DefaultConfig() *Config {
	return &Config{
		TimeoutSeconds:        defaultTimeoutSeconds,
		RequestsPerSecond:     2,
		BigCommerceAPIBaseURL: BigCommerceProductionAPIURL,
		ShopifyAPIVersion:     ShopifyDefaultAPIVersion,
		UserAgent:             "storesync/1.0",
	}
}

// Validate validates the configuration and fills unset fields with defaults
func (c *Config) Validate() error {
	if c.TimeoutSeconds < 0 {
		return ErrConfigInvalidTimeout
	}
	if c.RequestsPerSecond < 0 {
		return ErrConfigInvalidRate
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.BigCommerceAPIBaseURL == "" {
		c.BigCommerceAPIBaseURL = BigCommerceProductionAPIURL
	}
	c.BigCommerceAPIBaseURL = strings.TrimRight(c.BigCommerceAPIBaseURL, "/")
	if c.ShopifyAPIVersion == "" {
		c.ShopifyAPIVersion = ShopifyDefaultAPIVersion
	}
	if c.UserAgent == "" {
		c.UserAgent = "storesync/1.0"
	}
	return nil
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
