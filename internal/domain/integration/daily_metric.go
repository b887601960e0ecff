package integration

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for metric buckets
const DateLayout = "2006-01-02"

// skipStatuses are order statuses that are stored but never counted in metrics
var skipStatuses = map[string]struct{}{
	"refunded":  {},
	"cancelled": {},
	"canceled":  {},
	"failed":    {},
	"voided":    {},
	"pending":   {},
}

// IsRevenueEligible reports whether an order with the given platform status
// counts toward daily metrics. Matching is case-insensitive.
func IsRevenueEligible(status string) bool {
	_, skip := skipStatuses[strings.ToLower(strings.TrimSpace(status))]
	return !skip
}

// DailyMetric is the aggregate of one integration's eligible orders on one calendar date
type DailyMetric struct {
	IntegrationID uuid.UUID
	ClientID      uuid.UUID
	// Date is the bucket date at midnight UTC
	Date          time.Time
	Revenue       decimal.Decimal
	Orders        int
	Customers     int
	AvgOrderValue decimal.Decimal
	Currency      string
}

// DateKey returns the bucket date as YYYY-MM-DD
func (m DailyMetric) DateKey() string {
	return m.Date.Format(DateLayout)
}

// BucketDate returns the calendar date of t in t's own location, as midnight UTC
func BucketDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

type metricBucket struct {
	date          time.Time
	revenue       decimal.Decimal
	orders        int
	emails        map[string]struct{}
	currency      string
	currencyAt    time.Time
	currencyOrder string
}

// BuildDailyMetrics folds orders into one DailyMetric per calendar date.
//
// Orders in the skip set or without a timestamp are ignored. The output is
// sorted by date and does not depend on the order of the input slice: the
// bucket currency comes from the earliest contributing order, ties broken by
// external ID.
func BuildDailyMetrics(integrationID, clientID uuid.UUID, orders []Order) []DailyMetric {
	buckets := make(map[time.Time]*metricBucket)

	for _, o := range orders {
		if o.OrderedAt == nil || !IsRevenueEligible(o.Status) {
			continue
		}
		date := BucketDate(*o.OrderedAt)

		b, ok := buckets[date]
		if !ok {
			b = &metricBucket{
				date:   date,
				emails: make(map[string]struct{}),
			}
			buckets[date] = b
		}

		b.revenue = b.revenue.Add(o.Amount)
		b.orders++
		if email := strings.ToLower(strings.TrimSpace(o.CustomerEmail)); email != "" {
			b.emails[email] = struct{}{}
		}
		if b.currency == "" || earlier(*o.OrderedAt, o.ExternalID, b.currencyAt, b.currencyOrder) {
			if o.Currency != "" {
				b.currency = o.Currency
				b.currencyAt = *o.OrderedAt
				b.currencyOrder = o.ExternalID
			}
		}
	}

	metrics := make([]DailyMetric, 0, len(buckets))
	for _, b := range buckets {
		revenue := b.revenue.Round(2)
		avg := decimal.Zero
		if b.orders > 0 {
			avg = revenue.Div(decimal.NewFromInt(int64(b.orders))).Round(2)
		}
		metrics = append(metrics, DailyMetric{
			IntegrationID: integrationID,
			ClientID:      clientID,
			Date:          b.date,
			Revenue:       revenue,
			Orders:        b.orders,
			Customers:     len(b.emails),
			AvgOrderValue: avg,
			Currency:      b.currency,
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Date.Before(metrics[j].Date)
	})
	return metrics
}

func earlier(at time.Time, id string, thanAt time.Time, thanID string) bool {
	if !at.Equal(thanAt) {
		return at.Before(thanAt)
	}
	return id < thanID
}
