package integration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Store Sync Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformUnavailable   = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed = errors.New("integration: platform request failed")
	ErrInvalidResponse       = errors.New("integration: invalid platform response")

	// Sync errors
	ErrIntegrationNotFound   = errors.New("integration: integration not found")
	ErrUnsupportedPlatform   = errors.New("integration: unsupported platform")
	ErrIncompleteCredentials = errors.New("integration: incomplete platform credentials")
	ErrUpstream              = errors.New("integration: upstream platform error")
)

// ---------------------------------------------------------------------------
// Platform represents a supported storefront platform
// ---------------------------------------------------------------------------

// Platform represents the type of e-commerce platform an integration connects to
type Platform string

const (
	// PlatformWooCommerce represents a WooCommerce store
	PlatformWooCommerce Platform = "woocommerce"
	// PlatformWordPress is an alias for WooCommerce stores registered as WordPress sites
	PlatformWordPress Platform = "wordpress"
	// PlatformShopify represents a Shopify store
	PlatformShopify Platform = "shopify"
	// PlatformBigCommerce represents a BigCommerce store
	PlatformBigCommerce Platform = "bigcommerce"
)

// Canonical returns the platform with aliases resolved and casing normalized.
// wordpress maps to woocommerce.
func (p Platform) Canonical() Platform {
	normalized := Platform(strings.ToLower(strings.TrimSpace(string(p))))
	if normalized == PlatformWordPress {
		return PlatformWooCommerce
	}
	return normalized
}

// IsValid returns true if the platform (or its alias) is supported
func (p Platform) IsValid() bool {
	switch p.Canonical() {
	case PlatformWooCommerce, PlatformShopify, PlatformBigCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for the platform
func (p Platform) DisplayName() string {
	switch p.Canonical() {
	case PlatformWooCommerce:
		return "WooCommerce"
	case PlatformShopify:
		return "Shopify"
	case PlatformBigCommerce:
		return "BigCommerce"
	default:
		return string(p)
	}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Order is the canonical representation of a purchase pulled from a platform
type Order struct {
	// ExternalID is the platform-native order ID, unique per integration
	ExternalID string
	// Amount is the order total rounded to 2 decimal places
	Amount decimal.Decimal
	// Currency is the ISO currency code reported by the platform
	Currency string
	// CustomerName is the billing first and last name joined by a space
	CustomerName string
	// CustomerEmail is the customer email, empty when unknown
	CustomerEmail string
	// Status is the platform's own status string, preserved verbatim
	Status string
	// OrderedAt is when the order was created; nil when the platform value was unusable
	OrderedAt *time.Time
}

// ---------------------------------------------------------------------------
// OrderSource Port Interface
// ---------------------------------------------------------------------------

// OrderSource defines the port interface for pulling orders from a storefront.
// Concrete adapters (WooCommerce, Shopify, BigCommerce) live in the infrastructure layer.
// Implementations page sequentially and return either every order created after
// since, or an error. They never return a partial result.
type OrderSource interface {
	// Platform returns the canonical platform this adapter handles
	Platform() Platform

	// FetchOrders pulls all orders created after since
	FetchOrders(ctx context.Context, si *StoreIntegration, since time.Time) ([]Order, error)
}

// OrderSourceRegistry selects the adapter for an integration's platform
type OrderSourceRegistry interface {
	// GetSource returns the adapter for the platform, resolving aliases.
	// Returns ErrUnsupportedPlatform for anything else.
	GetSource(platform Platform) (OrderSource, error)
}
