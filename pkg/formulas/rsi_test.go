package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestRSI_AllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := LatestRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100, *rsi, 0.001, "monotonically rising series should peg RSI at 100")
}

func TestLatestRSI_AllLosses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	rsi := LatestRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 0, *rsi, 0.001)
}

func TestLatestRSI_FlatSeriesStaysInRange(t *testing.T) {
	closes := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11, 10, 11}

	rsi := LatestRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 0.0)
	assert.Less(t, *rsi, 100.0)
}

func TestLatestRSI_InsufficientData(t *testing.T) {
	assert.Nil(t, LatestRSI([]float64{100, 101, 102}, 14))
	assert.Nil(t, RSI(nil, 14))
}
