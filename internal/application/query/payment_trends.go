package query

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/timeutil"
)

// TrendBucketDTO is one time bucket of the payment trend series.
type TrendBucketDTO struct {
	// Bucket is the calendar key: YYYY-MM-DD, GGGG-Wnn, or YYYY-MM
	// depending on the period.
	Bucket string `json:"bucket"`

	// BucketStart is the start instant of the bucket, UTC.
	BucketStart time.Time `json:"bucket_start"`

	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentCount  int             `json:"payment_count"`
	AverageAmount decimal.Decimal `json:"average_amount"` // rounded to 2 decimals
}

// PaymentTrends flattens each fee record's payment history into individual
// payment events, filters them by the date range, and buckets them by the
// requested period. Buckets come back in chronological order; the whole
// series uses one UTC/ISO-week calendar convention.
func (r *Reports) PaymentTrends(ctx context.Context, ident tenant.Identity, f fees.Filter, period timeutil.Period) ([]TrendBucketDTO, error) {
	if !period.Valid() {
		return nil, shared.NewDomainError("fees", "PaymentTrends", shared.ErrInvalidInput,
			"period must be daily, weekly or monthly")
	}

	type bucketAcc struct {
		start time.Time
		total decimal.Decimal
		count int
	}
	buckets := make(map[string]*bucketAcc)

	// Record-level date bounds would hide payments made outside the window
	// on records due inside it; the range applies to payment events here.
	recordFilter := f
	recordFilter.From = nil
	recordFilter.To = nil

	err := r.forEachFeeRecord(ctx, ident, recordFilter, func(rec *fees.FeeRecord) error {
		for _, p := range rec.Payments {
			if f.From != nil && p.PaymentDate.Before(*f.From) {
				continue
			}
			if f.To != nil && p.PaymentDate.After(*f.To) {
				continue
			}

			key := timeutil.BucketKey(p.PaymentDate, period)
			acc, ok := buckets[key]
			if !ok {
				acc = &bucketAcc{
					start: timeutil.BucketStart(p.PaymentDate, period),
					total: decimal.Zero,
				}
				buckets[key] = acc
			}
			acc.total = acc.total.Add(p.Amount)
			acc.count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	series := make([]TrendBucketDTO, 0, len(buckets))
	for key, acc := range buckets {
		avg := decimal.Zero
		if acc.count > 0 {
			avg = acc.total.Div(decimal.NewFromInt(int64(acc.count))).Round(2)
		}
		series = append(series, TrendBucketDTO{
			Bucket:        key,
			BucketStart:   acc.start,
			TotalAmount:   acc.total,
			PaymentCount:  acc.count,
			AverageAmount: avg,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].BucketStart.Before(series[j].BucketStart)
	})

	return series, nil
}
