package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"macd_scanner/internal/models"
	"macd_scanner/internal/modules/config"
	"macd_scanner/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const fetchAttempts = 3

// Client — REST-клиент Yahoo Finance chart API.
// 4h-серия строится ресемплингом 60 дней часовых баров, дневная
// забирается напрямую за 3 месяца.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *RateLimiter
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.ProviderBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: NewRateLimiter(cfg.ProviderRPM, time.Minute),
	}
}

func (c *Client) FetchBars(ctx context.Context, symbol string, tf models.Timeframe) ([]models.Candle, error) {
	switch tf {
	case models.TF4H:
		hourly, err := c.fetchChart(ctx, symbol, "1h", "60d")
		if err != nil {
			return nil, err
		}
		return ResampleTo4H(hourly), nil
	case models.TF1D:
		return c.fetchChart(ctx, symbol, "1d", "3mo")
	default:
		return nil, errors.Wrapf(models.ErrDataUnavailable, "unsupported timeframe %q", tf)
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, symbol, interval, rng string) ([]models.Candle, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			// бэкофф на троттлинг/5xx провайдера
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}

		bars, retryable, err := c.doFetch(ctx, symbol, interval, rng)
		if err == nil {
			return bars, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		logger.Error("[FETCH] %s %s attempt %d: %v", symbol, interval, attempt+1, err)
	}
	return nil, lastErr
}

func (c *Client) doFetch(ctx context.Context, symbol, interval, rng string) (bars []models.Candle, retryable bool, err error) {
	c.limiter.WaitIfNeeded()

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, errors.Wrap(models.ErrDataUnavailable, err.Error())
	}
	// без UA Yahoo отдаёт 429
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; macd-scanner/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(models.ErrDataUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5
		return nil, retry, errors.Wrapf(models.ErrDataUnavailable, "http %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrap(models.ErrDataUnavailable, err.Error())
	}

	var payload chartResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, false, errors.Wrap(models.ErrDataUnavailable, err.Error())
	}
	if payload.Chart.Error != nil {
		return nil, false, errors.Wrapf(models.ErrDataUnavailable, "provider error %s: %s",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, false, errors.Wrap(models.ErrDataUnavailable, "empty result")
	}

	r := payload.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, false, errors.Wrap(models.ErrDataUnavailable, "no quote data")
	}
	q := r.Indicators.Quote[0]

	bars = make([]models.Candle, 0, len(r.Timestamp))
	var prevTs int64
	for i, ts := range r.Timestamp {
		if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) || i >= len(q.Close) {
			break
		}
		// провайдер шлёт null на неполных барах — такие строки пропускаем
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil {
			continue
		}
		// бары обязаны идти строго по возрастанию, без дублей
		if ts <= prevTs {
			return nil, false, errors.Wrapf(models.ErrMalformedBar, "out-of-order timestamp %d after %d", ts, prevTs)
		}
		prevTs = ts

		vol := 0.0
		if i < len(q.Volume) && q.Volume[i] != nil {
			vol = *q.Volume[i]
		}

		b := models.Candle{
			Ts:     time.Unix(ts, 0).UTC(),
			Open:   *q.Open[i],
			High:   *q.High[i],
			Low:    *q.Low[i],
			Close:  *q.Close[i],
			Volume: vol,
		}
		if !b.Valid() {
			return nil, false, errors.Wrapf(models.ErrMalformedBar, "non-finite values at %d", ts)
		}
		bars = append(bars, b)
	}

	if len(bars) == 0 {
		return nil, false, errors.Wrap(models.ErrDataUnavailable, "no usable bars")
	}
	return bars, false, nil
}
