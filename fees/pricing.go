package fees

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

type ItemKind string

const (
	SPORT      ItemKind = "sport"
	DISCIPLINE ItemKind = "discipline"
	PARENT     ItemKind = "parent"
)

func ParseItemKind(s string) (ItemKind, error) {
	switch k := ItemKind(strings.ToLower(s)); k {
	case SPORT, DISCIPLINE, PARENT:
		return k, nil
	default:
		return "", fmt.Errorf("unknown item kind %q", s)
	}
}

// Tier prices a single item. Threshold-based tiers apply to the Nth item and
// every item after it until a higher threshold takes over; category tiers
// apply to items of that category.
type Tier struct {
	Threshold int    `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	Amount    int64  `json:"amount" yaml:"amount"`
}

type Table struct {
	Kind     ItemKind `json:"kind" yaml:"kind"`
	Currency string   `json:"currency" yaml:"currency"`
	Tiers    []Tier   `json:"tiers" yaml:"tiers"`
}

// FlatTable charges amount for every item.
func FlatTable(kind ItemKind, currency string, amount int64) Table {
	return Table{
		Kind:     kind,
		Currency: currency,
		Tiers:    []Tier{{Threshold: 1, Amount: amount}},
	}
}

func (t Table) priceForItem(n int) int64 {
	best := -1
	var amount int64
	for _, tier := range t.Tiers {
		if tier.Category != "" {
			continue
		}
		if tier.Threshold <= n && tier.Threshold > best {
			best = tier.Threshold
			amount = tier.Amount
		}
	}
	return amount
}

func (t Table) priceForCategory(category string) int64 {
	for _, tier := range t.Tiers {
		if tier.Category != "" && strings.EqualFold(tier.Category, category) {
			return tier.Amount
		}
	}
	return 0
}

// CalculateFee sums the per-item price of count items.
func CalculateFee(count int, table Table) *money.Money {
	total := money.New(0, table.Currency)
	for i := 1; i <= count; i++ {
		total = mustAdd(total, money.New(table.priceForItem(i), table.Currency))
	}
	return total
}

// CalculateCategoryFee sums the category price of every item. Categories
// without a tier are free.
func CalculateCategoryFee(categories []string, table Table) *money.Money {
	total := money.New(0, table.Currency)
	for _, c := range categories {
		total = mustAdd(total, money.New(table.priceForCategory(c), table.Currency))
	}
	return total
}

func mustAdd(a, b *money.Money) *money.Money {
	sum, err := a.Add(b)
	if err != nil {
		// both sides are always built from the same table currency
		panic(fmt.Sprintf("failed to add fees: %s", err))
	}
	return sum
}
