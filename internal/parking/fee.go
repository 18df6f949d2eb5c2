package parking

import (
	"fmt"
	"math"
	"time"
)

const (
	BaseRate        = 40.0
	OvertimeRate    = 10.0
	MaxParkingHours = 5.0
)

// Rates are per-hour amounts in currency units. Overtime is charged on top of
// the base rate for every hour beyond MaxHours.
type Rates struct {
	Base     float64
	Overtime float64
	MaxHours float64
}

func DefaultRates() Rates {
	return Rates{
		Base:     BaseRate,
		Overtime: OvertimeRate,
		MaxHours: MaxParkingHours,
	}
}

type Charge struct {
	DurationHours float64
	Fee           float64
}

// FeeCalculator prices a stay from its entry and exit time.
type FeeCalculator struct {
	rates Rates
}

func NewFeeCalculator(rates Rates) FeeCalculator {
	return FeeCalculator{rates: rates}
}

func (c FeeCalculator) Rates() Rates {
	return c.rates
}

func (c FeeCalculator) Calculate(entry, exit time.Time) (Charge, error) {
	if exit.Before(entry) {
		return Charge{}, fmt.Errorf("%w: entry %s, exit %s",
			ErrInvalidDuration, entry.Format(time.RFC3339), exit.Format(time.RFC3339))
	}

	hours := exit.Sub(entry).Seconds() / 3600
	fee := c.rates.Base * hours
	if hours > c.rates.MaxHours {
		fee += c.rates.Overtime * (hours - c.rates.MaxHours)
	}

	return Charge{
		DurationHours: hours,
		Fee:           math.Round(fee*100) / 100,
	}, nil
}
