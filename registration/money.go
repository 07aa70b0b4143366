package registration

import "github.com/Rhymond/go-money"

func formatMinor(amount int64, currency string) string {
	return money.New(amount, currency).Display()
}
