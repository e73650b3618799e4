package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"mission-control/internal/domain"
	"mission-control/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	roverFallbackError = "Unable to load Mars rover telemetry right now."
	noticeEnterSol     = "Enter a sol to retrieve imagery."
	noticeNoImages     = "No images available for that sol. Try a nearby sol or a different rover."
)

// RoverController owns the rover panel. Each load fetches the photos for the
// committed (rover, sol) and the rover's manifest concurrently, and applies
// both or neither.
type RoverController struct {
	gateway RoverGateway
	opts    Options

	mu         sync.Mutex
	baseCtx    context.Context
	draftRover domain.Rover
	draftSol   string
	committed  domain.RoverQuery
	generation uint64
	state      domain.RoverPanel
	inflight   sync.WaitGroup
}

// NewRoverController creates an idle controller with initial as both draft and committed query
func NewRoverController(gateway RoverGateway, initial domain.RoverQuery, opts Options) *RoverController {
	initial.Sol = ClampSol(initial.Sol)
	return &RoverController{
		gateway:    gateway,
		opts:       opts.withDefaults(),
		baseCtx:    context.Background(),
		draftRover: initial.Rover,
		draftSol:   strconv.Itoa(initial.Sol),
		committed:  initial,
		state: domain.RoverPanel{
			Phase:  domain.PhaseIdle,
			Photos: []domain.RoverPhoto{},
			Query:  initial,
		},
	}
}

// Start loads the committed query in the background. Loads spawned by later
// submits run under ctx as well.
func (c *RoverController) Start(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	q := c.committed
	t := c.beginLocked(q)
	c.mu.Unlock()

	c.spawn(ctx, t, q)
}

// SetDraftRover selects the rover for the next submit
func (c *RoverController) SetDraftRover(id string) error {
	rover, err := ParseRover(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draftRover = rover
	return nil
}

// SetDraftSol replaces the raw sol text for the next submit
func (c *RoverController) SetDraftSol(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draftSol = text
}

// Draft returns the draft rover and raw sol text
func (c *RoverController) Draft() (domain.Rover, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftRover, c.draftSol
}

// Committed returns the query that currently drives fetching
func (c *RoverController) Committed() domain.RoverQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Submit normalizes the draft and commits it. An empty sol leaves the
// committed query alone, sets a notice and reports false.
func (c *RoverController) Submit() bool {
	c.mu.Lock()
	sol, ok := NormalizeSol(c.draftSol)
	if !ok {
		c.state.Notice = noticeEnterSol
		c.opts.notify(domain.PanelRover, c.state)
		c.mu.Unlock()
		return false
	}
	q := domain.RoverQuery{Rover: c.draftRover, Sol: sol}
	t := c.beginLocked(q)
	ctx := c.baseCtx
	c.mu.Unlock()

	c.spawn(ctx, t, q)
	return true
}

// Load commits q and fetches it on the calling goroutine
func (c *RoverController) Load(ctx context.Context, q domain.RoverQuery) {
	q.Sol = ClampSol(q.Sol)

	c.mu.Lock()
	t := c.beginLocked(q)
	c.mu.Unlock()

	c.run(ctx, t, q)
}

// State returns a snapshot of the panel
func (c *RoverController) State() domain.RoverPanel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every spawned load has resolved
func (c *RoverController) Wait() {
	c.inflight.Wait()
}

func (c *RoverController) beginLocked(q domain.RoverQuery) commit {
	c.generation++
	t := commit{
		generation: c.generation,
		id:         uuid.New(),
		startedAt:  time.Now(),
	}

	c.committed = q
	c.state.Phase = domain.PhaseLoading
	c.state.Loading = true
	c.state.Error = ""
	c.state.Notice = ""
	c.state.Query = q
	c.state.CommitID = t.id
	c.opts.notify(domain.PanelRover, c.state)
	return t
}

func (c *RoverController) spawn(ctx context.Context, t commit, q domain.RoverQuery) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.run(ctx, t, q)
	}()
}

func (c *RoverController) run(ctx context.Context, t commit, q domain.RoverQuery) {
	logger := c.opts.Logger.With(
		zap.String("panel", string(domain.PanelRover)),
		zap.Stringer("commit_id", t.id),
		zap.String("rover", string(q.Rover)),
		zap.Int("sol", q.Sol))
	logger.Debug("Loading rover telemetry")

	var (
		photos      []domain.RoverPhoto
		manifest    *domain.RoverManifest
		photoErr    error
		manifestErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		photos, photoErr = c.gateway.FetchRoverPhotos(ctx, q.Rover, q.Sol)
		return photoErr
	})
	g.Go(func() error {
		manifest, manifestErr = c.gateway.FetchRoverManifest(ctx, q.Rover)
		return manifestErr
	})
	// Wait returns whichever error came first; the photo error wins ties below.
	_ = g.Wait()

	err := photoErr
	if err == nil {
		err = manifestErr
	}
	msg := errorMessage(err, roverFallbackError)

	c.mu.Lock()
	// A cancelled caller ctx is an ordinary failure. Only the base ctx going
	// away means shutdown.
	if t.generation != c.generation || c.baseCtx.Err() != nil {
		c.mu.Unlock()
		logger.Debug("Discarding stale rover result", zap.Error(err))
		metrics.RecordStaleResult(string(domain.PanelRover))
		c.opts.record(ctx, domain.PanelRover, t, q, domain.OutcomeStale, msg, len(photos))
		return
	}

	c.state.Loading = false
	outcome := domain.OutcomeLoaded
	if err != nil {
		// The last good manifest stays on screen.
		outcome = domain.OutcomeFailed
		c.state.Phase = domain.PhaseFailed
		c.state.Error = msg
		c.state.Photos = []domain.RoverPhoto{}
	} else {
		if photos == nil {
			photos = []domain.RoverPhoto{}
		}
		c.state.Phase = domain.PhaseLoaded
		c.state.Error = ""
		c.state.Photos = photos
		c.state.Manifest = manifest
		if len(photos) == 0 {
			c.state.Notice = noticeNoImages
		}
	}
	c.opts.notify(domain.PanelRover, c.state)
	c.mu.Unlock()

	if err != nil {
		logger.Warn("Rover load failed",
			zap.NamedError("photos_error", photoErr),
			zap.NamedError("manifest_error", manifestErr))
	} else {
		logger.Info("Rover telemetry loaded", zap.Int("photos", len(photos)))
	}
	metrics.RecordPanelLoad(string(domain.PanelRover), string(outcome))
	c.opts.record(ctx, domain.PanelRover, t, q, outcome, msg, len(photos))
}
