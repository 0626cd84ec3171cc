package forecast

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/finworks/accrual-engine-go/internal/models"
)

// trendTolerance is the relative band inside which a series counts as flat.
const trendTolerance = 0.02

// ClassifyTrend labels the momentum of a weekly-rate series by smoothing it
// with a simple moving average and comparing the ends of the smoothed curve.
// Series too short to smooth are flat.
func ClassifyTrend(rates []float64) models.TrendDirection {
	if len(rates) < 2 {
		return models.TrendFlat
	}

	period := len(rates) / 2
	if period < 1 {
		period = 1
	}
	if period > 3 {
		period = 3
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(rates)))
	if len(smoothed) < 2 {
		return models.TrendFlat
	}

	first := smoothed[0]
	last := smoothed[len(smoothed)-1]
	base := math.Abs(first)
	if base == 0 {
		base = math.Abs(last)
	}
	if base == 0 {
		return models.TrendFlat
	}

	switch rel := (last - first) / base; {
	case rel > trendTolerance:
		return models.TrendRising
	case rel < -trendTolerance:
		return models.TrendFalling
	default:
		return models.TrendFlat
	}
}
