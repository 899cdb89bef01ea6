package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"macd_scanner/internal/models"
	"macd_scanner/internal/modules/config"
	"macd_scanner/pkg/logger"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// Короткие периоды (1/2/2): MinBars = 3, состояние последнего бара легко
// задать формой серии. [1,4,2] -> SELL, [1,2,4] -> STRONG BUY.
func testCfg(universe ...string) *config.Config {
	return &config.Config{
		Universe:         universe,
		FastPeriod:       1,
		SlowPeriod:       2,
		SignalPeriod:     2,
		AlertCooldown:    45 * time.Minute,
		FetchConcurrency: 4,
	}
}

func bearBars(t0 time.Time) []models.Candle { return mkBars(t0, time.Hour, 1, 4, 2) }
func bullBars(t0 time.Time) []models.Candle { return mkBars(t0, time.Hour, 1, 2, 4) }

type fakeProvider struct {
	mu   sync.Mutex
	bars map[models.InstrumentKey][]models.Candle
	errs map[models.InstrumentKey]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		bars: make(map[models.InstrumentKey][]models.Candle),
		errs: make(map[models.InstrumentKey]error),
	}
}

func (p *fakeProvider) FetchBars(_ context.Context, symbol string, tf models.Timeframe) ([]models.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := models.InstrumentKey{Symbol: symbol, Timeframe: tf}
	if err := p.errs[key]; err != nil {
		return nil, err
	}
	bars, ok := p.bars[key]
	if !ok {
		return nil, errors.Wrap(models.ErrDataUnavailable, "no fixture for "+key.String())
	}
	return bars, nil
}

// setAll — одна и та же серия на всю вселенную (оба таймфрейма).
func (p *fakeProvider) setAll(universe []string, bars []models.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tf := range []models.Timeframe{models.TF4H, models.TF1D} {
		for _, sym := range universe {
			p.bars[models.InstrumentKey{Symbol: sym, Timeframe: tf}] = bars
		}
	}
}

func (p *fakeProvider) setSymbol(sym string, bars []models.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tf := range []models.Timeframe{models.TF4H, models.TF1D} {
		p.bars[models.InstrumentKey{Symbol: sym, Timeframe: tf}] = bars
	}
}

func (p *fakeProvider) failSymbol(sym string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tf := range []models.Timeframe{models.TF4H, models.TF1D} {
		p.errs[models.InstrumentKey{Symbol: sym, Timeframe: tf}] = err
	}
}

func (p *fakeProvider) clearErrs() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = make(map[models.InstrumentKey]error)
}

type fakeNotifier struct {
	mu      sync.Mutex
	err     error
	batches [][]models.TransitionEvent
}

func (n *fakeNotifier) SendBatch(_ context.Context, _ time.Time, events []models.TransitionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.batches = append(n.batches, append([]models.TransitionEvent(nil), events...))
	return nil
}

func (n *fakeNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.batches)
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded [][]models.TransitionEvent
}

func (r *fakeRecorder) Record(_ context.Context, events []models.TransitionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, append([]models.TransitionEvent(nil), events...))
	return nil
}

var scanBase = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time { return scanBase.Add(time.Duration(n) * 24 * time.Hour) }

func TestScanPassFirstPassSilent(t *testing.T) {
	cfg := testCfg("AAA.NS", "BBB.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}

	s, err := NewScanner(cfg, provider, notifier, nil, nil)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bearBars(day(0)))
	report, err := s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)

	// первое наблюдение каждого ключа — событий быть не может
	assert.Empty(t, report.Events)
	assert.False(t, report.Dispatched)
	assert.Zero(t, notifier.calls())

	require.Len(t, report.Statuses, 4)
	for _, st := range report.Statuses {
		assert.Equal(t, models.OutcomeOK, st.Outcome)
		assert.Equal(t, models.StateSell, st.State)
	}
	assert.Zero(t, report.Skipped())
}

func TestScanPassDispatchesBatchInUniverseOrder(t *testing.T) {
	cfg := testCfg("AAA.NS", "BBB.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	reports := make(chan models.ScanReport, 4)

	s, err := NewScanner(cfg, provider, notifier, recorder, reports)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bearBars(day(0)))
	_, err = s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(1)))
	now := day(1)
	report, err := s.RunScanPass(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, report.Events, 4)
	assert.True(t, report.Dispatched)
	require.Equal(t, 1, notifier.calls())

	// порядок батча = порядок обхода вселенной: вся вселенная на 4h, потом 1d
	wantKeys := []models.InstrumentKey{
		{Symbol: "AAA.NS", Timeframe: models.TF4H},
		{Symbol: "BBB.NS", Timeframe: models.TF4H},
		{Symbol: "AAA.NS", Timeframe: models.TF1D},
		{Symbol: "BBB.NS", Timeframe: models.TF1D},
	}
	for i, ev := range report.Events {
		assert.Equal(t, wantKeys[i], ev.Key)
		assert.Equal(t, models.StateSell, ev.Prev)
		assert.Equal(t, models.StateStrongBuy, ev.Next)
		assert.True(t, ev.DetectedAt.Equal(now))
	}

	// окно съедено только что — остаток равен полному окну
	assert.Equal(t, cfg.AlertCooldown, report.CooldownRemaining)

	require.Len(t, recorder.recorded, 1)
	assert.Len(t, recorder.recorded[0], 4)

	// оба отчёта дошли до фида
	assert.Len(t, reports, 2)
}

func TestScanPassCooldownDropsBatch(t *testing.T) {
	cfg := testCfg("AAA.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}

	s, err := NewScanner(cfg, provider, notifier, nil, nil)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bearBars(day(0)))
	_, err = s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(1)))
	sentAt := day(1)
	_, err = s.RunScanPass(context.Background(), sentAt)
	require.NoError(t, err)
	require.Equal(t, 1, notifier.calls())

	// обратно в медвежье (событий нет), затем снова бычье внутри окна
	provider.setAll(cfg.Universe, bearBars(day(2)))
	_, err = s.RunScanPass(context.Background(), sentAt.Add(5*time.Minute))
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(3)))
	report, err := s.RunScanPass(context.Background(), sentAt.Add(10*time.Minute))
	require.NoError(t, err)

	// переходы зафиксированы, но окно закрыто — батч выброшен
	assert.Len(t, report.Events, 2)
	assert.False(t, report.Dispatched)
	assert.Equal(t, 1, notifier.calls())
	assert.Equal(t, 35*time.Minute, report.CooldownRemaining)
}

func TestScanPassDispatchFailureKeepsWindowOpen(t *testing.T) {
	cfg := testCfg("AAA.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{err: errors.Wrap(models.ErrDispatchFailure, "telegram 502")}
	recorder := &fakeRecorder{}

	s, err := NewScanner(cfg, provider, notifier, recorder, nil)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bearBars(day(0)))
	_, err = s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(1)))
	report, err := s.RunScanPass(context.Background(), day(1))
	require.NoError(t, err)

	// отправка упала: окно не съедено, истории нет
	assert.Len(t, report.Events, 2)
	assert.False(t, report.Dispatched)
	assert.Zero(t, report.CooldownRemaining)
	assert.Empty(t, recorder.recorded)

	// нотифаер ожил — следующий батч уходит сразу
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()

	provider.setAll(cfg.Universe, bearBars(day(2)))
	_, err = s.RunScanPass(context.Background(), day(2))
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(3)))
	report, err = s.RunScanPass(context.Background(), day(3))
	require.NoError(t, err)
	assert.True(t, report.Dispatched)
	assert.Equal(t, 1, notifier.calls())
	assert.Len(t, recorder.recorded, 1)
}

func TestScanPassFetchFailureIsolated(t *testing.T) {
	cfg := testCfg("AAA.NS", "BBB.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}

	s, err := NewScanner(cfg, provider, notifier, nil, nil)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bearBars(day(0)))
	_, err = s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)

	// AAA падает, BBB переходит — батч только по BBB
	provider.failSymbol("AAA.NS", errors.Wrap(models.ErrDataUnavailable, "yahoo 429"))
	provider.setSymbol("BBB.NS", bullBars(day(1)))
	report, err := s.RunScanPass(context.Background(), day(1))
	require.NoError(t, err)

	require.Len(t, report.Events, 2)
	for _, ev := range report.Events {
		assert.Equal(t, "BBB.NS", ev.Key.Symbol)
	}
	assert.Equal(t, 2, report.Skipped())
	for _, st := range report.Statuses {
		if st.Key.Symbol == "AAA.NS" {
			assert.Equal(t, models.OutcomeDataUnavailable, st.Outcome)
			assert.NotEmpty(t, st.Err)
		}
	}

	// стейт AAA не тронут сбоем: после восстановления переход всё ещё виден
	provider.clearErrs()
	provider.setSymbol("AAA.NS", bullBars(day(2)))
	report, err = s.RunScanPass(context.Background(), day(1).Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, report.Events, 2)
	for _, ev := range report.Events {
		assert.Equal(t, "AAA.NS", ev.Key.Symbol)
		assert.Equal(t, models.StateSell, ev.Prev)
	}
}

func TestScanPassOutcomeMapping(t *testing.T) {
	cfg := testCfg("AAA.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}

	s, err := NewScanner(cfg, provider, notifier, nil, nil)
	require.NoError(t, err)

	// короткая история: 2 бара при MinBars=3
	provider.setAll(cfg.Universe, mkBars(day(0), time.Hour, 1, 2))
	report, err := s.RunScanPass(context.Background(), day(0))
	require.NoError(t, err)
	for _, st := range report.Statuses {
		assert.Equal(t, models.OutcomeInsufficientHistory, st.Outcome)
	}
	assert.Equal(t, 2, report.Skipped())
}

func TestScanPassCancelledContext(t *testing.T) {
	cfg := testCfg("AAA.NS", "BBB.NS")
	provider := newFakeProvider()
	notifier := &fakeNotifier{}

	s, err := NewScanner(cfg, provider, notifier, nil, nil)
	require.NoError(t, err)

	provider.setAll(cfg.Universe, bullBars(day(0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := s.RunScanPass(ctx, day(0))
	require.NoError(t, err)

	// отменённый проход не отправляет и не портит трекер событиями
	assert.Empty(t, report.Events)
	assert.False(t, report.Dispatched)
	assert.Zero(t, notifier.calls())
	require.Len(t, report.Statuses, 4)
	for _, st := range report.Statuses {
		assert.Equal(t, models.OutcomeCancelled, st.Outcome)
	}
}
