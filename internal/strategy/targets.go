package strategy

import (
	"scalperbot/models"
)

// CalculateTargets derives the take-profit and stop-loss price levels
// from the entry price. The caller guarantees a positive price; no
// clamping is applied.
func CalculateTargets(price float64, direction models.Direction, tpPct, slPct float64) (tp, sl float64) {
	if direction == models.DirectionLong {
		tp = price * (1 + tpPct/100)
		sl = price * (1 - slPct/100)
		return tp, sl
	}
	tp = price * (1 - tpPct/100)
	sl = price * (1 + slPct/100)
	return tp, sl
}
