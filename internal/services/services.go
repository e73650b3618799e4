// Package services provides the dashboard panel controllers
package services

import (
	"context"
	"strings"
	"time"

	"mission-control/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApodGateway is the part of the NASA API the APOD panel needs
type ApodGateway interface {
	FetchApod(ctx context.Context, date string) (*domain.ApodRecord, error)
}

// RoverGateway is the part of the NASA API the rover panel needs
type RoverGateway interface {
	FetchRoverPhotos(ctx context.Context, rover domain.Rover, sol int) ([]domain.RoverPhoto, error)
	FetchRoverManifest(ctx context.Context, rover domain.Rover) (*domain.RoverManifest, error)
}

// Journal records how each load resolved
type Journal interface {
	Record(ctx context.Context, rec domain.FetchRecord) error
}

// Notifier receives a snapshot of a panel after every state change. It is
// called with the controller lock held and must not block.
type Notifier interface {
	PanelChanged(panel domain.Panel, snapshot interface{})
}

// Options carries the optional collaborators of a controller
type Options struct {
	Logger   *zap.Logger
	Journal  Journal
	Notifier Notifier
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// commit identifies one in-flight load
type commit struct {
	generation uint64
	id         uuid.UUID
	startedAt  time.Time
}

const journalTimeout = 5 * time.Second

func (o Options) record(ctx context.Context, panel domain.Panel, c commit, query interface{}, outcome domain.Outcome, message string, photos int) {
	if o.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	err := o.Journal.Record(ctx, domain.FetchRecord{
		ID:          c.id,
		Panel:       panel,
		Query:       query,
		Outcome:     outcome,
		Message:     message,
		PhotoCount:  photos,
		StartedAt:   c.startedAt,
		CompletedAt: time.Now(),
	})
	if err != nil {
		o.Logger.Warn("Failed to journal load",
			zap.String("panel", string(panel)),
			zap.Stringer("commit_id", c.id),
			zap.Error(err))
	}
}

func (o Options) notify(panel domain.Panel, snapshot interface{}) {
	if o.Notifier != nil {
		o.Notifier.PanelChanged(panel, snapshot)
	}
}

// errorMessage picks the message shown for a failed load
func errorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}
	return fallback
}

// Dashboard groups the two independently driven panels
type Dashboard struct {
	Apod  *ApodController
	Rover *RoverController
}

// Start triggers the initial load of both panels
func (d *Dashboard) Start(ctx context.Context) {
	d.Apod.Start(ctx)
	d.Rover.Start(ctx)
}

// Wait blocks until no load is in flight on either panel
func (d *Dashboard) Wait() {
	d.Apod.Wait()
	d.Rover.Wait()
}
