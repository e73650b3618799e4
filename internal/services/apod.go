package services

import (
	"context"
	"sync"
	"time"

	"mission-control/internal/domain"
	"mission-control/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const apodFallbackError = "Unable to load the Astronomy Picture of the Day."

// ApodController owns the APOD panel: a draft date, the committed date and the
// state produced by loading it. Only the most recent commit's result is applied.
type ApodController struct {
	gateway ApodGateway
	opts    Options

	mu         sync.Mutex
	baseCtx    context.Context
	draft      string
	committed  string
	generation uint64
	state      domain.ApodPanel
	inflight   sync.WaitGroup
}

// NewApodController creates an idle controller whose draft and committed date are initialDate
func NewApodController(gateway ApodGateway, initialDate string, opts Options) *ApodController {
	return &ApodController{
		gateway:   gateway,
		opts:      opts.withDefaults(),
		baseCtx:   context.Background(),
		draft:     initialDate,
		committed: initialDate,
		state: domain.ApodPanel{
			Phase: domain.PhaseIdle,
			Date:  initialDate,
		},
	}
}

// Start loads the committed date in the background. Loads spawned by later
// submits run under ctx as well.
func (c *ApodController) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	date := c.committed
	t := c.beginLocked(date)
	c.mu.Unlock()

	c.spawn(ctx, t, date)
}

// SetDraft replaces the draft date. Nothing is validated or fetched.
func (c *ApodController) SetDraft(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = date
}

// Draft returns the current draft date
func (c *ApodController) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Committed returns the date that currently drives fetching
func (c *ApodController) Committed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Submit commits the draft date and loads it in the background. An empty
// draft is ignored and Submit reports false. Future or malformed dates are
// left for the API to reject.
func (c *ApodController) Submit() bool {
	c.mu.Lock()
	if c.draft == "" {
		c.mu.Unlock()
		return false
	}
	date := c.draft
	t := c.beginLocked(date)
	ctx := c.baseCtx
	c.mu.Unlock()

	c.spawn(ctx, t, date)
	return true
}

// Load commits date and fetches it on the calling goroutine
func (c *ApodController) Load(ctx context.Context, date string) {
	c.mu.Lock()
	t := c.beginLocked(date)
	c.mu.Unlock()

	c.run(ctx, t, date)
}

// State returns a snapshot of the panel
func (c *ApodController) State() domain.ApodPanel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every spawned load has resolved
func (c *ApodController) Wait() {
	c.inflight.Wait()
}

func (c *ApodController) beginLocked(date string) commit {
	c.generation++
	t := commit{
		generation: c.generation,
		id:         uuid.New(),
		startedAt:  time.Now(),
	}

	c.committed = date
	c.state.Phase = domain.PhaseLoading
	c.state.Loading = true
	c.state.Error = ""
	c.state.Date = date
	c.state.CommitID = t.id
	c.opts.notify(domain.PanelApod, c.state)
	return t
}

func (c *ApodController) spawn(ctx context.Context, t commit, date string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.run(ctx, t, date)
	}()
}

func (c *ApodController) run(ctx context.Context, t commit, date string) {
	logger := c.opts.Logger.With(
		zap.String("panel", string(domain.PanelApod)),
		zap.Stringer("commit_id", t.id),
		zap.String("date", date))
	logger.Debug("Loading APOD")

	record, err := c.gateway.FetchApod(ctx, date)
	msg := errorMessage(err, apodFallbackError)
	query := map[string]string{"date": date}

	c.mu.Lock()
	// A cancelled caller ctx is an ordinary failure. Only the base ctx going
	// away means shutdown.
	if t.generation != c.generation || c.baseCtx.Err() != nil {
		c.mu.Unlock()
		logger.Debug("Discarding stale APOD result", zap.Error(err))
		metrics.RecordStaleResult(string(domain.PanelApod))
		c.opts.record(ctx, domain.PanelApod, t, query, domain.OutcomeStale, msg, 0)
		return
	}

	c.state.Loading = false
	outcome := domain.OutcomeLoaded
	if err != nil {
		outcome = domain.OutcomeFailed
		c.state.Phase = domain.PhaseFailed
		c.state.Error = msg
		c.state.Data = nil
	} else {
		c.state.Phase = domain.PhaseLoaded
		c.state.Error = ""
		c.state.Data = record
	}
	c.opts.notify(domain.PanelApod, c.state)
	c.mu.Unlock()

	if err != nil {
		logger.Warn("APOD load failed", zap.Error(err))
	} else {
		logger.Info("APOD loaded", zap.String("title", record.Title))
	}
	metrics.RecordPanelLoad(string(domain.PanelApod), string(outcome))
	c.opts.record(ctx, domain.PanelApod, t, query, outcome, msg, 0)
}
