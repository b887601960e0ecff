package integration

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoreIntegration is one client's connection to one storefront.
// It is created and deactivated by an external admin workflow; the sync engine
// only ever mutates LastSyncedAt.
type StoreIntegration struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	Platform Platform
	// StoreURL is the storefront base URL (WooCommerce, Shopify)
	StoreURL string
	// APIKey is the WooCommerce consumer key
	APIKey string
	// APISecret is the WooCommerce consumer secret
	APISecret string
	// AccessToken is the Shopify or BigCommerce API token
	AccessToken string
	// StoreHash identifies a BigCommerce store in the API path
	StoreHash    string
	IsActive     bool
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BaseURL returns the store URL without a trailing slash
func (si *StoreIntegration) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(si.StoreURL), "/")
}

// ValidateCredentials checks that the credential fields required by the
// integration's platform are present.
func (si *StoreIntegration) ValidateCredentials() error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch si.Platform.Canonical() {
	case PlatformWooCommerce:
		require("store_url", si.StoreURL)
		require("api_key", si.APIKey)
		require("api_secret", si.APISecret)
	case PlatformShopify:
		require("store_url", si.StoreURL)
		require("access_token", si.AccessToken)
	case PlatformBigCommerce:
		require("store_hash", si.StoreHash)
		require("access_token", si.AccessToken)
	default:
		return ErrUnsupportedPlatform
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// MarkSynced records a successful sync
func (si *StoreIntegration) MarkSynced(at time.Time) {
	t := at
	si.LastSyncedAt = &t
	si.UpdatedAt = at
}
