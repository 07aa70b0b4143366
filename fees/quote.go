package fees

import (
	"context"
	"log/slog"

	"github.com/Rhymond/go-money"
	"github.com/sports-festival/festival-registration/metrics"
)

const EstimatedFeeWarning = "Pricing could not be loaded, the total shown is an estimate and may be inaccurate"

// DefaultCurrency prices a failed quote that has no fallback rate.
const DefaultCurrency = money.KES

type PricingSource interface {
	GetPricing(ctx context.Context, kind ItemKind) (Table, error)
}

type Quotation struct {
	Total     *money.Money
	Estimated bool
	Warning   string
}

// Quote prices count items of kind using the pricing source. When the source
// fails the fallback flat rate is used instead and the quotation is flagged as
// an estimate. A nil fallback is treated as a zero rate.
func Quote(ctx context.Context, logger *slog.Logger, source PricingSource, kind ItemKind, count int, fallback *money.Money) Quotation {
	table, err := source.GetPricing(ctx, kind)
	if err != nil {
		metrics.IncPricingFallback(string(kind))
		logger.Warn("failed to load pricing, using fallback rate",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))

		if fallback == nil {
			fallback = money.New(0, DefaultCurrency)
		}

		return Quotation{
			Total:     CalculateFee(count, FlatTable(kind, fallback.Currency().Code, fallback.Amount())),
			Estimated: true,
			Warning:   EstimatedFeeWarning,
		}
	}

	return Quotation{
		Total: CalculateFee(count, table),
	}
}
