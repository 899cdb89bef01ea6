package service

import (
	"time"

	"macd_scanner/internal/models"
)

// ResampleTo4H склеивает часовые бары в четырёхчасовые по UTC-бакетам
// (выравнивание по эпохе, как pandas resample('4h')): open первого,
// close последнего, high/low экстремумы, volume суммой.
// Вход обязан быть упорядочен по времени.
func ResampleTo4H(bars []models.Candle) []models.Candle {
	if len(bars) == 0 {
		return nil
	}

	out := make([]models.Candle, 0, len(bars)/4+1)
	var cur models.Candle
	var curBucket time.Time
	have := false

	for _, b := range bars {
		bucket := b.Ts.UTC().Truncate(4 * time.Hour)
		if !have || !bucket.Equal(curBucket) {
			if have {
				out = append(out, cur)
			}
			cur = models.Candle{
				Ts:     bucket,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			}
			curBucket = bucket
			have = true
			continue
		}

		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	out = append(out, cur)
	return out
}
