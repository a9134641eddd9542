// Package engine drives the indicator pipeline and signal evaluator,
// either live on a candle-close schedule or as a reverse replay over
// historical data.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scalperbot/internal/indicators"
	"scalperbot/internal/notify"
	"scalperbot/internal/siglog"
	"scalperbot/internal/strategy"
	"scalperbot/models"
)

// State of the scheduling loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "IDLE"
	}
}

// EventType classifies engine events.
type EventType string

const (
	EventSignal    EventType = "signal"
	EventHeartbeat EventType = "heartbeat"
	EventError     EventType = "error"
)

// Event is what the engine publishes to its consumer. Signal is set for
// EventSignal, Price for EventHeartbeat, Err for EventError.
type Event struct {
	Type   EventType
	Signal *models.SignalEvent
	Price  float64
	Err    error
}

// CandleSource delivers the most recent closed candles for a symbol,
// oldest first.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// Options configures an Engine.
type Options struct {
	Source   CandleSource
	Notifier notify.Notifier // optional
	Appender siglog.Appender // optional

	Symbol      string
	Timeframe   string
	CandleCount int

	// StrategyFn returns the strategy snapshot for the next cycle. It
	// is called once per cycle, so external updates take effect at the
	// next cycle boundary.
	StrategyFn func() models.StrategyConfig

	// SettleDelay is the pause after a candle closes before fetching,
	// avoiding a race with the exchange finalizing the candle.
	SettleDelay time.Duration
	// RetryDelay is the pause after a failed fetch.
	RetryDelay time.Duration
}

// Engine runs the fetch → compute → evaluate → act cycle on candle
// close boundaries until stopped.
type Engine struct {
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}

	events chan Event

	// nowFn is the wall clock; tests pin it near a boundary.
	nowFn func() time.Time
}

// New creates an engine. It does not start the loop.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("engine: nil candle source")
	}
	if opts.StrategyFn == nil {
		return nil, fmt.Errorf("engine: nil strategy provider")
	}
	if _, err := models.TimeframeMinutes(opts.Timeframe); err != nil {
		return nil, err
	}
	if opts.CandleCount <= 0 {
		opts.CandleCount = 300
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}

	return &Engine{
		opts:   opts,
		logger: log.With().Str("component", "engine").Str("symbol", opts.Symbol).Logger(),
		state:  StateIdle,
		events: make(chan Event, 64),
		nowFn:  time.Now,
	}, nil
}

// Events returns the channel the engine publishes on. Events are
// dropped rather than blocking the loop when the consumer lags.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// State reports the current loop state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start moves the engine from IDLE to RUNNING and launches the loop.
// Starting a running engine is an error; callers serialize start/stop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return fmt.Errorf("engine: start requested in state %s", e.state)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateRunning

	go e.run(runCtx)
	return nil
}

// Stop requests a stop. The loop observes it at the next checkpoint or
// during any wait; Stop does not interrupt an in-flight fetch.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return
	}
	e.state = StateStopping
	e.cancel()
}

// Wait blocks until the loop has returned to IDLE.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (e *Engine) run(ctx context.Context) {
	e.logger.Info().Str("timeframe", e.opts.Timeframe).Msg("Worker started")

	defer func() {
		e.mu.Lock()
		e.cancel()
		e.state = StateIdle
		close(e.done)
		e.mu.Unlock()
		e.logger.Info().Msg("Worker stopped")
	}()

	for {
		// Checkpoint: honor a stop before committing to a new cycle.
		if ctx.Err() != nil {
			return
		}

		cfg := e.opts.StrategyFn()

		delay, err := models.NextCandleDelay(e.opts.Timeframe, e.nowFn())
		if err != nil {
			// Timeframe was validated in New; treat as fatal config drift.
			e.logger.Error().Err(err).Msg("Bad timeframe, stopping")
			e.emit(Event{Type: EventError, Err: err})
			return
		}

		if delay > time.Second {
			e.logger.Info().Dur("delay", delay).Msg("Waiting until candle close")
		}
		if !e.sleep(ctx, delay) {
			return
		}
		// Give the exchange a moment to finalize the candle.
		if !e.sleep(ctx, e.opts.SettleDelay) {
			return
		}

		window, err := e.opts.Source.GetCandles(ctx, e.opts.Symbol, e.opts.Timeframe, e.opts.CandleCount)
		if err == nil && len(window) == 0 {
			err = fmt.Errorf("empty candle window")
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.Warn().Err(err).Msg("Could not fetch candles, retrying")
			e.emit(Event{Type: EventError, Err: err})
			if !e.sleep(ctx, e.opts.RetryDelay) {
				return
			}
			continue
		}

		set := indicators.Compute(window, cfg)
		event, ok := strategy.Evaluate(window, set, cfg, e.opts.Symbol, e.opts.Timeframe)
		if !ok {
			price := window[len(window)-1].Close
			e.logger.Info().Float64("price", price).Msg("No signal")
			e.emit(Event{Type: EventHeartbeat, Price: price})
			continue
		}

		e.handleSignal(cfg, event)
	}
}

func (e *Engine) handleSignal(cfg models.StrategyConfig, event *models.SignalEvent) {
	tp, sl := strategy.CalculateTargets(event.Price, event.Direction, cfg.TakeProfitPct, cfg.StopLossPct)
	event.TakeProfit = tp
	event.StopLoss = sl

	e.logger.Info().
		Str("signal", event.Direction.Label()).
		Float64("price", event.Price).
		Float64("tp", tp).
		Float64("sl", sl).
		Msg("Signal detected")

	// The log write is synchronous: the next cycle must not start
	// before this record lands. A failed write is logged, not fatal.
	if e.opts.Appender != nil {
		if err := e.opts.Appender.Append(event); err != nil {
			e.logger.Error().Err(err).Msg("Could not save signal log")
		}
	}

	// Notification is fire-and-forget; a failure never delays cycles.
	if e.opts.Notifier != nil {
		go func(ev *models.SignalEvent) {
			if err := e.opts.Notifier.SendSignal(ev); err != nil {
				e.logger.Error().Err(err).Msg("Telegram alert failed")
			}
		}(event)
	}

	e.emit(Event{Type: EventSignal, Signal: event})
}

// sleep waits for d, returning false as soon as a stop is requested.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn().Str("type", string(ev.Type)).Msg("Event dropped, consumer lagging")
	}
}
