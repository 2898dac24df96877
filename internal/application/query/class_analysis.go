package query

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/schoolhub/school-admin-hub/internal/domain/fees"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
)

// ClassGroupDTO is the fee position of one (class, section) group.
type ClassGroupDTO struct {
	ClassName        string          `json:"class_name"`
	Section          string          `json:"section"`
	StudentCount     int             `json:"student_count"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	StatusCounts     map[string]int  `json:"status_counts"`

	// CollectionPercent is 100 * mean(paid/billed) over the group's records
	// with a non-zero billed amount, rounded to two decimals for display.
	// Records billed zero are excluded from the mean but still counted in
	// the totals above.
	CollectionPercent float64 `json:"collection_percent"`
}

type classGroupAccumulator struct {
	dto        *ClassGroupDTO
	ratioSum   decimal.Decimal
	ratioCount int64
}

// ClassWiseAnalysis groups fee records by (class, section) and computes
// per-group totals, status counts, and collection percentage. Groups come
// back ordered ascending by class then section.
func (r *Reports) ClassWiseAnalysis(ctx context.Context, ident tenant.Identity, f fees.Filter) ([]ClassGroupDTO, error) {
	type groupKey struct{ class, section string }
	groups := make(map[groupKey]*classGroupAccumulator)

	err := r.forEachFeeRecord(ctx, ident, f, func(rec *fees.FeeRecord) error {
		key := groupKey{rec.StudentClass, rec.StudentSection}
		acc, ok := groups[key]
		if !ok {
			acc = &classGroupAccumulator{
				dto: &ClassGroupDTO{
					ClassName:        rec.StudentClass,
					Section:          rec.StudentSection,
					TotalBilled:      decimal.Zero,
					TotalCollected:   decimal.Zero,
					TotalOutstanding: decimal.Zero,
					StatusCounts:     make(map[string]int),
				},
				ratioSum: decimal.Zero,
			}
			groups[key] = acc
		}

		acc.dto.StudentCount++
		acc.dto.TotalBilled = acc.dto.TotalBilled.Add(rec.TotalAmount)
		acc.dto.TotalCollected = acc.dto.TotalCollected.Add(rec.TotalPaid)
		acc.dto.TotalOutstanding = acc.dto.TotalOutstanding.Add(rec.TotalPending)
		acc.dto.StatusCounts[string(rec.Status)]++

		if rec.TotalAmount.IsPositive() {
			acc.ratioSum = acc.ratioSum.Add(rec.TotalPaid.Div(rec.TotalAmount))
			acc.ratioCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]ClassGroupDTO, 0, len(groups))
	for _, acc := range groups {
		if acc.ratioCount > 0 {
			mean := acc.ratioSum.Div(decimal.NewFromInt(acc.ratioCount))
			acc.dto.CollectionPercent, _ = mean.Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
		result = append(result, *acc.dto)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ClassName != result[j].ClassName {
			return result[i].ClassName < result[j].ClassName
		}
		return result[i].Section < result[j].Section
	})

	return result, nil
}
