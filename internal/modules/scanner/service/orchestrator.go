package service

import (
	"context"
	"sync"
	"time"

	"macd_scanner/internal/models"
	"macd_scanner/internal/modules/config"
	"macd_scanner/pkg/logger"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// BarProvider — внешний источник баров (Yahoo и т.п.).
type BarProvider interface {
	FetchBars(ctx context.Context, symbol string, tf models.Timeframe) ([]models.Candle, error)
}

// BatchNotifier — канал уведомлений: одно сообщение на непустой батч.
type BatchNotifier interface {
	SendBatch(ctx context.Context, scannedAt time.Time, events []models.TransitionEvent) error
}

// AlertRecorder — история отправленных алертов (опционально).
type AlertRecorder interface {
	Record(ctx context.Context, events []models.TransitionEvent) error
}

// Scanner — оркестратор одного прохода: вселенная x {4h, 1d}, fetch ->
// MACD -> классификация -> трекер, потом гейт и отправка батча.
// Повторные вызовы RunScanPass сериализуются мьютексом: трекер и гейт —
// общий мутабельный стейт, параллельные проходы ломали бы сравнение
// prev/next и дважды съедали кулдаун.
type Scanner struct {
	mu sync.Mutex // один проход за раз

	cfg      *config.Config
	provider BarProvider
	notifier BatchNotifier
	recorder AlertRecorder

	engine  *MACDEngine
	tracker *TransitionTracker
	gate    *CooldownGate

	reports chan<- models.ScanReport
}

func NewScanner(
	cfg *config.Config,
	provider BarProvider,
	notifier BatchNotifier,
	recorder AlertRecorder,
	reports chan<- models.ScanReport,
) (*Scanner, error) {
	engine, err := NewMACDEngine(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		cfg:      cfg,
		provider: provider,
		notifier: notifier,
		recorder: recorder,
		engine:   engine,
		tracker:  NewTransitionTracker(),
		gate:     NewCooldownGate(cfg.AlertCooldown),
		reports:  reports,
	}, nil
}

// universeKeys — порядок обхода фиксирован: сперва вся вселенная на 4h,
// потом на 1d. От него зависит порядок событий в батче.
func (s *Scanner) universeKeys() []models.InstrumentKey {
	keys := make([]models.InstrumentKey, 0, 2*len(s.cfg.Universe))
	for _, tf := range []models.Timeframe{models.TF4H, models.TF1D} {
		for _, sym := range s.cfg.Universe {
			keys = append(keys, models.InstrumentKey{Symbol: sym, Timeframe: tf})
		}
	}
	return keys
}

type fetchResult struct {
	res     models.MACDResult
	outcome models.ScanOutcome
	err     string
}

// RunScanPass — единственная точка входа для хоста/шедулера.
func (s *Scanner) RunScanPass(ctx context.Context, now time.Time) (*models.ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := opentracing.StartSpan("scan_pass")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	keys := s.universeKeys()
	report := &models.ScanReport{
		StartedAt: now,
		Statuses:  make([]models.InstrumentStatus, 0, len(keys)),
	}

	// fetch+compute по инструментам независимы — гоняем пул воркеров,
	// размер ограничен, чтобы не словить rate limit провайдера
	results := make([]fetchResult, len(keys))
	sem := make(chan struct{}, s.cfg.FetchConcurrency)
	var wg sync.WaitGroup

	for i, key := range keys {
		i, key := i, key
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = fetchResult{outcome: models.OutcomeCancelled, err: ctx.Err().Error()}
				return
			}

			results[i] = s.fetchOne(ctx, key)
		}()
	}
	wg.Wait()

	// классификация и Observe — строго последовательно, в порядке вселенной:
	// батч детерминирован, Observe атомарен относительно отмены
	events := make([]models.TransitionEvent, 0)
	for i, key := range keys {
		if ctx.Err() != nil {
			report.Statuses = append(report.Statuses, models.InstrumentStatus{
				Key: key, Outcome: models.OutcomeCancelled, Err: ctx.Err().Error(),
			})
			continue
		}

		r := results[i]
		if r.outcome != models.OutcomeOK {
			report.Statuses = append(report.Statuses, models.InstrumentStatus{
				Key: key, Outcome: r.outcome, Err: r.err,
			})
			continue
		}

		prev, hasPrev := s.tracker.Last(key)
		state := Classify(r.res.MACD, r.res.Signal, prev, hasPrev)
		ev, fired := s.tracker.Observe(key, state, r.res.BarTime, now)
		if fired {
			logger.Info("🔄 %s %s -> %s", key, ev.Prev, ev.Next)
			events = append(events, ev)
		}
		report.Statuses = append(report.Statuses, models.InstrumentStatus{
			Key: key, Outcome: models.OutcomeOK, State: state,
		})
	}
	report.Events = events

	s.dispatch(ctx, now, report)

	report.CooldownRemaining = s.gate.Remaining(now)
	report.FinishedAt = time.Now()

	// отдаём отчёт наружу (ws-фид), не блокируясь
	if s.reports != nil {
		select {
		case s.reports <- *report:
		default:
		}
	}

	logger.Info("scan pass done: %d instruments, %d events, %d skipped, dispatched=%v",
		len(keys), len(events), report.Skipped(), report.Dispatched)
	return report, nil
}

// dispatch — непустой батч при открытом окне отправляем ровно один раз.
// Закрытое окно — батч выбрасываем: переходы уже записаны в трекере,
// кандидатом станет батч следующего прохода, очереди нет.
func (s *Scanner) dispatch(ctx context.Context, now time.Time, report *models.ScanReport) {
	if len(report.Events) == 0 {
		return
	}
	if !s.gate.CanSend(now) {
		logger.Info("⏱ cooldown: %s remaining, dropping batch of %d", s.gate.Remaining(now), len(report.Events))
		return
	}

	if err := s.notifier.SendBatch(ctx, now, report.Events); err != nil {
		// окно НЕ съедено — следующий проход может отправить свой батч
		logger.Error("dispatch failed, cooldown untouched: %v", err)
		return
	}
	s.gate.RecordSent(now)
	report.Dispatched = true

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, report.Events); err != nil {
			logger.Error("alert history insert failed: %v", err)
		}
	}
}

func (s *Scanner) fetchOne(ctx context.Context, key models.InstrumentKey) fetchResult {
	bars, err := s.provider.FetchBars(ctx, key.Symbol, key.Timeframe)
	if err != nil {
		return fetchResult{outcome: outcomeForErr(ctx, err), err: err.Error()}
	}

	res, err := s.engine.Latest(bars)
	if err != nil {
		return fetchResult{outcome: outcomeForErr(ctx, err), err: err.Error()}
	}
	return fetchResult{res: res, outcome: models.OutcomeOK}
}

func outcomeForErr(ctx context.Context, err error) models.ScanOutcome {
	switch {
	case ctx.Err() != nil:
		return models.OutcomeCancelled
	case errors.Is(err, models.ErrInsufficientHistory):
		return models.OutcomeInsufficientHistory
	case errors.Is(err, models.ErrMalformedBar):
		return models.OutcomeMalformedBar
	default:
		return models.OutcomeDataUnavailable
	}
}

// RemainingCooldown — для отображения хостом.
func (s *Scanner) RemainingCooldown(now time.Time) time.Duration {
	return s.gate.Remaining(now)
}
