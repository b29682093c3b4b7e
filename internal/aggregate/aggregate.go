// Package aggregate computes price history points from order snapshots.
package aggregate

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/wfm-tracker/internal/api"
	"github.com/rickgao/wfm-tracker/internal/model"
	"github.com/rickgao/wfm-tracker/internal/orderbook"
)

// Aggregator derives a PricePoint from an item's fetched orders.
type Aggregator struct {
	platform string
	now      func() time.Time
}

// New creates an Aggregator whose price statistics cover orders on platform.
// An empty platform includes every order.
func New(platform string) *Aggregator {
	return &Aggregator{
		platform: platform,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Aggregate computes min, max, average, median and volume for the item.
//
// Price statistics use buy and sell orders on the tracked platform. Volume
// counts every fetched order, whatever its platform or side. It returns false
// when no buy or sell order exists on the platform; no point is recorded then.
func (a *Aggregator) Aggregate(item model.Item, fetched []api.APIOrder) (model.PricePoint, bool) {
	if len(fetched) == 0 {
		return model.PricePoint{}, false
	}

	prices := make([]int, 0, len(fetched))
	for _, o := range orderbook.FilterPlatform(fetched, a.platform) {
		if _, ok := model.ParseSide(o.Type); ok {
			prices = append(prices, o.Platinum)
		}
	}
	if len(prices) == 0 {
		return model.PricePoint{}, false
	}

	slices.Sort(prices)

	var sum int64
	for _, p := range prices {
		sum += int64(p)
	}

	return model.PricePoint{
		ItemID:    item.ID,
		MinPrice:  prices[0],
		MaxPrice:  prices[len(prices)-1],
		AvgPrice:  Average(sum, len(prices)),
		Median:    Median(prices),
		Volume:    len(fetched),
		Timestamp: a.now(),
	}, true
}

// Average returns sum/n rounded half away from zero to 2 decimal places.
func Average(sum int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(n))).
		Round(2).
		InexactFloat64()
}

// Median returns the element at index len/2 of an ascending slice. For an
// even count that is the upper of the two middle values; no interpolation.
func Median(sorted []int) int {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)/2]
}
