package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalperbot/models"
)

type fakeSource struct {
	mu      sync.Mutex
	window  []models.Candle
	errs    []error // consumed first, one per call
	fetches int
}

func (f *fakeSource) GetCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.window, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type memAppender struct {
	mu     sync.Mutex
	events []*models.SignalEvent
}

func (m *memAppender) Append(event *models.SignalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memAppender) Close() error { return nil }

func (m *memAppender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type memNotifier struct {
	mu    sync.Mutex
	sent  []*models.SignalEvent
	fail  bool
	calls int
}

func (m *memNotifier) SendSignal(event *models.SignalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return errors.New("telegram unavailable")
	}
	m.sent = append(m.sent, event)
	return nil
}

func (m *memNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func flatWindow(n int) []models.Candle {
	return generateTestCandles(n, func(i int) models.Candle {
		return models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      100, High: 100, Low: 100, Close: 100,
			Volume: 5,
		}
	})
}

// trendWindow mirrors the evaluator's engineered LONG/SHORT fixture.
func trendWindow(n int, up bool) []models.Candle {
	with, against := 0.3, 0.2
	if !up {
		with, against = -0.3, -0.2
	}

	close := 100.0
	return generateTestCandles(n, func(i int) models.Candle {
		if i > 0 {
			if i%2 == 1 {
				close += with
			} else {
				close -= against
			}
		}
		vol := 5.0
		if i == n-1 {
			vol = 20
		}
		return models.Candle{
			Timestamp: int64(i) * 60_000,
			Open:      close, High: close + 0.1, Low: close - 0.1, Close: close,
			Volume: vol,
		}
	})
}

func newTestEngine(t *testing.T, source CandleSource, opts Options) *Engine {
	t.Helper()
	opts.Source = source
	opts.Symbol = "BTCUSDT"
	opts.Timeframe = "1m"
	opts.CandleCount = 60
	if opts.StrategyFn == nil {
		opts.StrategyFn = func() models.StrategyConfig { return models.DefaultStrategyConfig() }
	}
	if opts.SettleDelay == 0 {
		opts.SettleDelay = 10 * time.Millisecond
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 10 * time.Millisecond
	}

	eng, err := New(opts)
	require.NoError(t, err)
	return eng
}

// pinClock makes every boundary wait exactly one second long.
func pinClock(e *Engine) {
	e.nowFn = func() time.Time { return time.Unix(59, 0) }
}

func TestStopDuringBoundaryWait(t *testing.T) {
	source := &fakeSource{window: flatWindow(60)}
	eng := newTestEngine(t, source, Options{SettleDelay: 2 * time.Second})

	require.NoError(t, eng.Start(context.Background()))
	require.Equal(t, StateRunning, eng.State())

	time.Sleep(100 * time.Millisecond)
	stopAt := time.Now()
	eng.Stop()
	eng.Wait()

	assert.Less(t, time.Since(stopAt), time.Second, "stop not honored promptly")
	assert.Equal(t, 0, source.fetchCount(), "cycle ran despite stop during wait")
	assert.Equal(t, StateIdle, eng.State())
}

func TestEngineSignalCycle(t *testing.T) {
	source := &fakeSource{window: trendWindow(60, true)}
	appender := &memAppender{}
	notifier := &memNotifier{}
	eng := newTestEngine(t, source, Options{Appender: appender, Notifier: notifier})
	pinClock(eng)

	require.NoError(t, eng.Start(context.Background()))
	defer func() {
		eng.Stop()
		eng.Wait()
	}()

	select {
	case ev := <-eng.Events():
		require.Equal(t, EventSignal, ev.Type)
		require.NotNil(t, ev.Signal)
		assert.Equal(t, models.DirectionLong, ev.Signal.Direction)
		assert.Greater(t, ev.Signal.TakeProfit, ev.Signal.Price)
		assert.Less(t, ev.Signal.StopLoss, ev.Signal.Price)
	case <-time.After(5 * time.Second):
		t.Fatal("no signal event within deadline")
	}

	// The log write is synchronous, so the record is in place by the
	// time the event is observable.
	assert.GreaterOrEqual(t, appender.count(), 1)

	// Notification is fire-and-forget; give it a moment.
	assert.Eventually(t, func() bool { return notifier.callCount() >= 1 },
		2*time.Second, 10*time.Millisecond, "notifier never invoked")
}

func TestEngineHeartbeatWhenNoSignal(t *testing.T) {
	source := &fakeSource{window: flatWindow(60)}
	eng := newTestEngine(t, source, Options{})
	pinClock(eng)

	require.NoError(t, eng.Start(context.Background()))
	defer func() {
		eng.Stop()
		eng.Wait()
	}()

	select {
	case ev := <-eng.Events():
		require.Equal(t, EventHeartbeat, ev.Type)
		assert.Equal(t, 100.0, ev.Price)
	case <-time.After(5 * time.Second):
		t.Fatal("no heartbeat within deadline")
	}
}

func TestEngineRetriesFetchFailure(t *testing.T) {
	source := &fakeSource{
		window: flatWindow(60),
		errs:   []error{errors.New("exchange down"), errors.New("exchange down")},
	}
	eng := newTestEngine(t, source, Options{})
	pinClock(eng)

	require.NoError(t, eng.Start(context.Background()))
	defer func() {
		eng.Stop()
		eng.Wait()
	}()

	deadline := time.After(10 * time.Second)
	var errored int
	for {
		select {
		case ev := <-eng.Events():
			switch ev.Type {
			case EventError:
				errored++
			case EventHeartbeat:
				// Loop survived both failures.
				assert.Equal(t, 2, errored)
				assert.GreaterOrEqual(t, source.fetchCount(), 3)
				return
			default:
				t.Fatalf("unexpected event %s", ev.Type)
			}
		case <-deadline:
			t.Fatal("engine never recovered from fetch failures")
		}
	}
}

func TestEngineNotifierFailureIsNotFatal(t *testing.T) {
	source := &fakeSource{window: trendWindow(60, true)}
	notifier := &memNotifier{fail: true}
	eng := newTestEngine(t, source, Options{Notifier: notifier})
	pinClock(eng)

	require.NoError(t, eng.Start(context.Background()))
	defer func() {
		eng.Stop()
		eng.Wait()
	}()

	// Two consecutive signal cycles despite the failing notifier.
	for i := 0; i < 2; i++ {
		select {
		case ev := <-eng.Events():
			require.Equal(t, EventSignal, ev.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("cycle %d never produced a signal", i)
		}
	}
}

func TestStartWhileRunning(t *testing.T) {
	source := &fakeSource{window: flatWindow(60)}
	eng := newTestEngine(t, source, Options{})

	require.NoError(t, eng.Start(context.Background()))
	assert.Error(t, eng.Start(context.Background()), "double start accepted")

	eng.Stop()
	eng.Wait()
	assert.Equal(t, StateIdle, eng.State())

	// Stopping an idle engine is a no-op.
	eng.Stop()
	assert.Equal(t, StateIdle, eng.State())
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{
		Source:     &fakeSource{},
		StrategyFn: func() models.StrategyConfig { return models.DefaultStrategyConfig() },
		Timeframe:  "banana",
	})
	assert.Error(t, err)
}
