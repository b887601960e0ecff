// Package integration contains the Store Integration bounded context.
// This context pulls order history from third-party storefronts and derives
// per-day sales metrics from it.
//
// Key concepts:
//   - StoreIntegration: Entity describing one client's connection to one storefront
//   - Order: Canonical, platform-agnostic purchase record
//   - OrderSource: Port interface for fetching orders from a platform (WooCommerce, Shopify, BigCommerce)
//   - DailyMetric: Per-day aggregate (revenue, orders, customers, average order value)
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
