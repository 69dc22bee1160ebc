package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index for each point of a close-price
// series. The first `length` values are NaN-padded by talib and skipped;
// callers receive (date-aligned) values starting at index `length`.
//
// RSI = 100 - (100 / (1 + RS)) where RS = avg gain / avg loss over N periods.
func RSI(closes []float64, length int) []float64 {
	if len(closes) < length+1 {
		return nil
	}
	return talib.Rsi(closes, length)
}

// LatestRSI returns the most recent RSI value for a close-price series, or
// nil when there is not enough data.
func LatestRSI(closes []float64, length int) *float64 {
	rsi := RSI(closes, length)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

func isNaN(f float64) bool {
	return f != f
}
