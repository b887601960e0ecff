package ecommerce

import (
	"fmt"

	"github.com/storesync/backend/internal/domain/integration"
)

// Registry maps canonical platforms to their adapters
type Registry struct {
	sources map[integration.Platform]integration.OrderSource
}

// NewRegistry creates a registry from the given adapters
func NewRegistry(sources ...integration.OrderSource) *Registry {
	r := &Registry{sources: make(map[integration.Platform]integration.OrderSource, len(sources))}
	for _, s := range sources {
		r.sources[s.Platform().Canonical()] = s
	}
	return r
}

// NewDefaultRegistry creates a registry with the WooCommerce, Shopify, and
// BigCommerce adapters sharing one configuration
func NewDefaultRegistry(config *Config) (*Registry, error) {
	woo, err := NewWooCommerceAdapter(config)
	if err != nil {
		return nil, err
	}
	shopify, err := NewShopifyAdapter(config)
	if err != nil {
		return nil, err
	}
	bigCommerce, err := NewBigCommerceAdapter(config)
	if err != nil {
		return nil, err
	}
	return NewRegistry(woo, shopify, bigCommerce), nil
}

// GetSource returns the adapter for platform, resolving the wordpress alias
func (r *Registry) GetSource(platform integration.Platform) (integration.OrderSource, error) {
	if s, ok := r.sources[platform.Canonical()]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedPlatform, platform)
}

var _ integration.OrderSourceRegistry = (*Registry)(nil)
