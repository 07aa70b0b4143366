package fees

import (
	"context"
	"fmt"
)

// StaticPricing serves pricing tables loaded once at startup.
type StaticPricing map[ItemKind]Table

var _ PricingSource = StaticPricing{}

func (s StaticPricing) GetPricing(ctx context.Context, kind ItemKind) (Table, error) {
	t, ok := s[kind]
	if !ok {
		return Table{}, fmt.Errorf("no pricing configured for %q", kind)
	}
	return t, nil
}

func (s StaticPricing) Validate() error {
	for kind, t := range s {
		if t.Kind != "" && t.Kind != kind {
			return fmt.Errorf("pricing table for %q is labelled %q", kind, t.Kind)
		}
		if len(t.Currency) != 3 {
			return fmt.Errorf("pricing table for %q has invalid currency %q", kind, t.Currency)
		}
		for i, tier := range t.Tiers {
			if tier.Amount < 0 {
				return fmt.Errorf("pricing table for %q tier %d has a negative amount", kind, i)
			}
		}
	}
	return nil
}
