package indicator

import "github.com/araseong/altcoin-scalp-bot/shared"

// valueAreaVolumeShare is the share of traded volume contained by the value area.
const valueAreaVolumeShare = 0.7

// vahColumn computes the volume profile value area high over the trailing
// lookback window ending at each bar.
func vahColumn(candles []shared.Candlestick, lookback int, bins int) shared.Column {
	column := shared.NewColumn(len(candles))

	for idx := lookback - 1; idx < len(candles); idx++ {
		column.Set(idx, valueAreaHigh(candles[idx-lookback+1:idx+1], bins))
	}

	return column
}

// valueAreaHigh estimates the value area high of the provided window: the
// window's close price range is partitioned into equal width buckets, traded
// volume is accumulated per bucket, and buckets are consumed in descending
// volume order until the value area share of total volume is reached. The
// result is the upper boundary of the consumed bucket set. A window without
// traded volume falls back to its maximum price.
func valueAreaHigh(window []shared.Candlestick, bins int) float64 {
	minPrice, maxPrice := window[0].Close, window[0].Close
	var totalVolume float64
	for idx := range window {
		if window[idx].Close < minPrice {
			minPrice = window[idx].Close
		}
		if window[idx].Close > maxPrice {
			maxPrice = window[idx].Close
		}
		totalVolume += window[idx].Volume
	}

	priceRange := maxPrice - minPrice
	if totalVolume == 0 || priceRange == 0 {
		return maxPrice
	}

	bucketWidth := priceRange / float64(bins)
	volumes := make([]float64, bins)
	for idx := range window {
		bucket := int((window[idx].Close - minPrice) / bucketWidth)
		if bucket >= bins {
			// The maximum price lands on the upper edge of the last bucket.
			bucket = bins - 1
		}
		volumes[bucket] += window[idx].Volume
	}

	// Consume buckets in descending volume order until the value area share
	// of total volume is covered, tracking the highest consumed bucket.
	consumed := make([]bool, bins)
	var accumulated float64
	highestBucket := -1
	for accumulated < valueAreaVolumeShare*totalVolume {
		best := -1
		for b := 0; b < bins; b++ {
			if consumed[b] {
				continue
			}
			if best == -1 || volumes[b] > volumes[best] {
				best = b
			}
		}
		if best == -1 {
			break
		}

		consumed[best] = true
		accumulated += volumes[best]
		if best > highestBucket {
			highestBucket = best
		}
	}

	return minPrice + float64(highestBucket+1)*bucketWidth
}
