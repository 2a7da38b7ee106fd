package logger

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultDataDogBuffer  = 256
	defaultDataDogTimeout = 10 * time.Second
	dataDogMaxBatch       = 50
	dataDogFlushInterval  = 2 * time.Second
	dataDogTripFailures   = 5
)

// submitter sends a batch of log items to the datadog log intake.
type submitter interface {
	Submit(ctx context.Context, items []datadogV2.HTTPLogItem) error
}

type intakeClient struct {
	api  *datadogV2.LogsApi
	keys map[string]datadog.APIKey
	site string
}

// Submit implements submitter using the datadog v2 logs api.
func (c *intakeClient) Submit(ctx context.Context, items []datadogV2.HTTPLogItem) error {
	ctx = context.WithValue(ctx, datadog.ContextAPIKeys, c.keys)
	if c.site != "" {
		ctx = context.WithValue(ctx, datadog.ContextServerVariables, map[string]string{"site": c.site})
	}

	_, _, err := c.api.SubmitLog(ctx, items, *datadogV2.NewSubmitLogOptionalParameters())

	return err //nolint:wrapcheck
}

// DataDogWriter is a zerolog.LevelWriter forwarding log lines to datadog.
// Lines are queued and shipped in batches by a background goroutine; a full
// queue, the rate limiter or an open circuit breaker drop lines instead of
// blocking the caller.
type DataDogWriter struct {
	cfg      DataDog
	minLevel zerolog.Level
	client   submitter
	breaker  *gobreaker.CircuitBreaker[struct{}]
	limiter  *rate.Limiter

	mu     sync.RWMutex
	closed bool
	queue  chan []byte
	done   chan struct{}

	dropped atomic.Int64
	sent    atomic.Int64
}

// NewDataDogWriter creates a writer for the datadog log intake.
func NewDataDogWriter(cfg DataDog) (*DataDogWriter, error) {
	if cfg.APIKey == "" {
		return nil, ErrDataDogAPIKeyIsEmpty
	}

	client := &intakeClient{
		api:  datadogV2.NewLogsApi(datadog.NewAPIClient(datadog.NewConfiguration())),
		keys: map[string]datadog.APIKey{"apiKeyAuth": {Key: cfg.APIKey}},
		site: cfg.Site,
	}

	return newDataDogWriter(cfg, client)
}

func newDataDogWriter(cfg DataDog, client submitter) (*DataDogWriter, error) {
	minLevel := zerolog.WarnLevel

	if cfg.MinLevel != "" {
		l, err := zerolog.ParseLevel(cfg.MinLevel)
		if err != nil {
			return nil, errors.Wrapf(err, "datadog min level %s is not supported", cfg.MinLevel)
		}

		minLevel = l
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultDataDogBuffer
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultDataDogTimeout
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	w := &DataDogWriter{
		cfg:      cfg,
		minLevel: minLevel,
		client:   client,
		limiter:  rate.NewLimiter(limit, dataDogMaxBatch),
		queue:    make(chan []byte, cfg.BufferSize),
		done:     make(chan struct{}),
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "datadog-logs",
			Timeout: 30 * time.Second, //nolint:mnd
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= dataDogTripFailures
			},
		}),
	}

	go w.run()

	return w, nil
}

// Write implements io.Writer. Lines without a level are not forwarded.
func (w *DataDogWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (w *DataDogWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < w.minLevel || l == zerolog.NoLevel || l == zerolog.Disabled {
		return len(p), nil
	}

	if !w.limiter.Allow() {
		w.dropped.Add(1)
		return len(p), nil
	}

	// zerolog reuses the buffer after the write returns
	line := append([]byte(nil), p...)

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return len(p), nil
	}

	select {
	case w.queue <- line:
	default:
		w.dropped.Add(1)
	}

	return len(p), nil
}

// Close flushes queued lines and stops the background sender.
func (w *DataDogWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done

	return nil
}

// Dropped returns the number of lines that were not delivered.
func (w *DataDogWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Sent returns the number of lines accepted by datadog.
func (w *DataDogWriter) Sent() int64 {
	return w.sent.Load()
}

func (w *DataDogWriter) run() {
	defer close(w.done)

	ticker := time.NewTicker(dataDogFlushInterval)
	defer ticker.Stop()

	batch := make([][]byte, 0, dataDogMaxBatch)

	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flush(batch)
				return
			}

			batch = append(batch, line)
			if len(batch) >= dataDogMaxBatch {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			w.flush(batch)
			batch = batch[:0]
		}
	}
}

func (w *DataDogWriter) flush(batch [][]byte) {
	if len(batch) == 0 {
		return
	}

	items := make([]datadogV2.HTTPLogItem, 0, len(batch))

	for _, line := range batch {
		item := datadogV2.NewHTTPLogItem(strings.TrimSpace(string(line)))

		if w.cfg.Source != "" {
			item.SetDdsource(w.cfg.Source)
		}

		if w.cfg.ServiceName != "" {
			item.SetService(w.cfg.ServiceName)
		}

		if w.cfg.Tags != "" {
			item.SetDdtags(w.cfg.Tags)
		}

		items = append(items, *item)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.client.Submit(ctx, items)
	})
	if err != nil {
		// the global logger may write to this writer, report on stderr only
		ErrorHandler(errors.Wrap(err, "datadog log submit failed"))
		w.dropped.Add(int64(len(items)))

		return
	}

	w.sent.Add(int64(len(items)))
}
