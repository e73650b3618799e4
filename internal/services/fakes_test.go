package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"mission-control/internal/domain"

	"github.com/stretchr/testify/require"
)

type apodReply struct {
	record *domain.ApodRecord
	err    error
}

// fakeApodGateway answers each date from its own channel, so tests decide
// the order in which responses resolve.
type fakeApodGateway struct {
	mu      sync.Mutex
	calls   []string
	replies map[string]chan apodReply
}

func newFakeApodGateway() *fakeApodGateway {
	return &fakeApodGateway{replies: make(map[string]chan apodReply)}
}

func (f *fakeApodGateway) reply(date string) chan apodReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replyLocked(date)
}

func (f *fakeApodGateway) replyLocked(date string) chan apodReply {
	ch, ok := f.replies[date]
	if !ok {
		ch = make(chan apodReply, 4)
		f.replies[date] = ch
	}
	return ch
}

func (f *fakeApodGateway) FetchApod(ctx context.Context, date string) (*domain.ApodRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, date)
	ch := f.replyLocked(date)
	f.mu.Unlock()

	select {
	case r := <-ch:
		return r.record, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeApodGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeApodGateway) calledWith() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type photosReply struct {
	photos []domain.RoverPhoto
	err    error
}

type manifestReply struct {
	manifest *domain.RoverManifest
	err      error
}

type fakeRoverGateway struct {
	mu              sync.Mutex
	photoCalls      []domain.RoverQuery
	manifestCalls   []domain.Rover
	photoReplies    map[domain.RoverQuery]chan photosReply
	manifestReplies map[domain.Rover]chan manifestReply
}

func newFakeRoverGateway() *fakeRoverGateway {
	return &fakeRoverGateway{
		photoReplies:    make(map[domain.RoverQuery]chan photosReply),
		manifestReplies: make(map[domain.Rover]chan manifestReply),
	}
}

func (f *fakeRoverGateway) photos(q domain.RoverQuery) chan photosReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.photosLocked(q)
}

func (f *fakeRoverGateway) photosLocked(q domain.RoverQuery) chan photosReply {
	ch, ok := f.photoReplies[q]
	if !ok {
		ch = make(chan photosReply, 4)
		f.photoReplies[q] = ch
	}
	return ch
}

func (f *fakeRoverGateway) manifest(rover domain.Rover) chan manifestReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.manifestLocked(rover)
}

func (f *fakeRoverGateway) manifestLocked(rover domain.Rover) chan manifestReply {
	ch, ok := f.manifestReplies[rover]
	if !ok {
		ch = make(chan manifestReply, 4)
		f.manifestReplies[rover] = ch
	}
	return ch
}

func (f *fakeRoverGateway) FetchRoverPhotos(ctx context.Context, rover domain.Rover, sol int) ([]domain.RoverPhoto, error) {
	q := domain.RoverQuery{Rover: rover, Sol: sol}
	f.mu.Lock()
	f.photoCalls = append(f.photoCalls, q)
	ch := f.photosLocked(q)
	f.mu.Unlock()

	select {
	case r := <-ch:
		return r.photos, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeRoverGateway) FetchRoverManifest(ctx context.Context, rover domain.Rover) (*domain.RoverManifest, error) {
	f.mu.Lock()
	f.manifestCalls = append(f.manifestCalls, rover)
	ch := f.manifestLocked(rover)
	f.mu.Unlock()

	select {
	case r := <-ch:
		return r.manifest, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeRoverGateway) callCounts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.photoCalls), len(f.manifestCalls)
}

type recordingJournal struct {
	mu      sync.Mutex
	records []domain.FetchRecord
}

func (j *recordingJournal) Record(_ context.Context, rec domain.FetchRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *recordingJournal) outcomes() []domain.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.Outcome, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, r.Outcome)
	}
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []interface{}
}

func (n *recordingNotifier) PanelChanged(_ domain.Panel, snapshot interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = append(n.snapshots, snapshot)
}

func (n *recordingNotifier) last() interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.snapshots) == 0 {
		return nil
	}
	return n.snapshots[len(n.snapshots)-1]
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
