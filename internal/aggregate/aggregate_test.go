package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/wfm-tracker/internal/api"
	"github.com/rickgao/wfm-tracker/internal/model"
)

func order(side string, price int, platform string) api.APIOrder {
	return api.APIOrder{Type: side, Platinum: price, Quantity: 1, User: api.APIUser{Platform: platform}}
}

func fixedAggregator(platform string, at time.Time) *Aggregator {
	a := New(platform)
	a.now = func() time.Time { return at }
	return a
}

func TestAggregate(t *testing.T) {
	item := model.Item{ID: uuid.New(), Slug: "primed_flow"}
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	a := fixedAggregator("pc", at)

	fetched := []api.APIOrder{
		order("sell", 40, "pc"),
		order("buy", 10, "pc"),
		order("sell", 30, "pc"),
		order("buy", 20, "pc"),
		order("sell", 5, "xbox"),
	}

	p, ok := a.Aggregate(item, fetched)
	if !ok {
		t.Fatal("Aggregate returned ok=false")
	}
	if p.ItemID != item.ID {
		t.Errorf("ItemID = %v, want %v", p.ItemID, item.ID)
	}
	if p.MinPrice != 10 || p.MaxPrice != 40 {
		t.Errorf("Min/Max = %d/%d, want 10/40", p.MinPrice, p.MaxPrice)
	}
	if p.AvgPrice != 25 {
		t.Errorf("AvgPrice = %v, want 25", p.AvgPrice)
	}
	if p.Median != 30 {
		t.Errorf("Median = %d, want 30", p.Median)
	}
	if p.Volume != 5 {
		t.Errorf("Volume = %d, want 5 (all platforms)", p.Volume)
	}
	if !p.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", p.Timestamp, at)
	}
}

func TestAggregate_Empty(t *testing.T) {
	a := New("pc")
	if _, ok := a.Aggregate(model.Item{}, nil); ok {
		t.Error("Aggregate(nil) ok=true, want false")
	}
}

func TestAggregate_NoOrdersOnPlatform(t *testing.T) {
	a := New("pc")
	fetched := []api.APIOrder{order("sell", 10, "ps4"), order("buy", 5, "switch")}
	if _, ok := a.Aggregate(model.Item{}, fetched); ok {
		t.Error("Aggregate with no pc orders ok=true, want false")
	}
}

func TestAggregate_UnknownSidesIgnored(t *testing.T) {
	a := New("pc")
	fetched := []api.APIOrder{order("trade", 1, "pc"), order("sell", 50, "pc")}

	p, ok := a.Aggregate(model.Item{}, fetched)
	if !ok {
		t.Fatal("Aggregate returned ok=false")
	}
	if p.MinPrice != 50 || p.MaxPrice != 50 || p.Median != 50 {
		t.Errorf("Min/Median/Max = %d/%d/%d, want 50/50/50", p.MinPrice, p.Median, p.MaxPrice)
	}
	if p.Volume != 2 {
		t.Errorf("Volume = %d, want 2", p.Volume)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		prices []int
		want   int
	}{
		{[]int{10, 20, 30, 40}, 30},
		{[]int{10, 20, 30}, 20},
		{[]int{7}, 7},
		{[]int{1, 2}, 2},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := Median(tt.prices); got != tt.want {
			t.Errorf("Median(%v) = %d, want %d", tt.prices, got, tt.want)
		}
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		sum  int64
		n    int
		want float64
	}{
		{100, 4, 25},
		{10, 3, 3.33},
		{20, 3, 6.67},
		{1, 8, 0.13},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Average(tt.sum, tt.n); got != tt.want {
			t.Errorf("Average(%d, %d) = %v, want %v", tt.sum, tt.n, got, tt.want)
		}
	}
}

func TestAggregate_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New("pc")

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(30)
		fetched := make([]api.APIOrder, n)
		for j := range fetched {
			side := "sell"
			if rng.Intn(2) == 0 {
				side = "buy"
			}
			fetched[j] = order(side, 1+rng.Intn(500), "pc")
		}

		p, ok := a.Aggregate(model.Item{}, fetched)
		if !ok {
			t.Fatalf("iteration %d: ok=false for %d orders", i, n)
		}
		if p.MinPrice > p.Median || p.Median > p.MaxPrice {
			t.Fatalf("iteration %d: min %d median %d max %d out of order", i, p.MinPrice, p.Median, p.MaxPrice)
		}
		for _, o := range fetched {
			if o.Platinum < p.MinPrice || o.Platinum > p.MaxPrice {
				t.Fatalf("iteration %d: price %d outside [%d, %d]", i, o.Platinum, p.MinPrice, p.MaxPrice)
			}
		}
		if p.AvgPrice < float64(p.MinPrice) || p.AvgPrice > float64(p.MaxPrice) {
			t.Fatalf("iteration %d: avg %v outside [%d, %d]", i, p.AvgPrice, p.MinPrice, p.MaxPrice)
		}
	}
}
