package marketdata

// trackedSource merges a fixed ticker set into a watchlist source so those
// symbols are collected even with an empty watchlist.
type trackedSource struct {
	src     WatchlistSource
	tracked []string
}

// WithTracked wraps src so the tracked tickers are always part of the
// collection set. Duplicates are removed, tracked tickers first.
func WithTracked(src WatchlistSource, tracked []string) WatchlistSource {
	if len(tracked) == 0 {
		return src
	}
	return &trackedSource{src: src, tracked: tracked}
}

func (t *trackedSource) GetDistinctActiveSymbols() ([]string, error) {
	symbols, err := t.src.GetDistinctActiveSymbols()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(t.tracked)+len(symbols))
	merged := make([]string, 0, len(t.tracked)+len(symbols))
	for _, group := range [][]string{t.tracked, symbols} {
		for _, s := range group {
			if !seen[s] {
				seen[s] = true
				merged = append(merged, s)
			}
		}
	}
	return merged, nil
}
