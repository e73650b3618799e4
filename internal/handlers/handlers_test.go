package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mission-control/internal/config"
	"mission-control/internal/domain"
	"mission-control/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"
)

type stubGateway struct {
	mu       sync.Mutex
	apodErr  error
	photos   int
	photoErr error
	block    chan struct{}
	queries  []domain.RoverQuery
}

func (g *stubGateway) FetchApod(_ context.Context, date string) (*domain.ApodRecord, error) {
	if g.apodErr != nil {
		return nil, g.apodErr
	}
	return &domain.ApodRecord{Title: "Orion", Date: date, MediaType: "video", URL: "https://video.example/embed"}, nil
}

func (g *stubGateway) FetchRoverPhotos(ctx context.Context, rover domain.Rover, sol int) ([]domain.RoverPhoto, error) {
	g.mu.Lock()
	g.queries = append(g.queries, domain.RoverQuery{Rover: rover, Sol: sol})
	block := g.block
	g.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.photoErr != nil {
		return nil, g.photoErr
	}
	photos := make([]domain.RoverPhoto, 0, g.photos)
	for i := 0; i < g.photos; i++ {
		photos = append(photos, domain.RoverPhoto{
			ID:        int64(i + 1),
			Sol:       sol,
			ImgSrc:    "https://mars.example/p.jpg",
			EarthDate: "2015-05-30",
			Camera:    domain.RoverCamera{FullName: "Mast Camera"},
		})
	}
	return photos, nil
}

func (g *stubGateway) FetchRoverManifest(_ context.Context, rover domain.Rover) (*domain.RoverManifest, error) {
	return &domain.RoverManifest{
		Name:        string(rover),
		LaunchDate:  "2011-11-26",
		LandingDate: "2012-08-06",
		Status:      "active",
		MaxSol:      4100,
		MaxDate:     "2024-02-19",
		TotalPhotos: 695670,
	}, nil
}

func (g *stubGateway) lastQuery() domain.RoverQuery {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queries[len(g.queries)-1]
}

type stubJournal struct {
	items []domain.FetchRecord
	err   error
}

func (j *stubJournal) Recent(context.Context, int) ([]domain.FetchRecord, error) {
	return j.items, j.err
}

type envelope struct {
	Ok    bool             `json:"ok"`
	Data  json.RawMessage  `json:"data"`
	Error *domain.ApiError `json:"error"`
}

func setup(t *testing.T, gw *stubGateway, journal JournalReader) (*gin.Engine, *services.Dashboard) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	dash := &services.Dashboard{
		Apod:  services.NewApodController(gw, "2024-05-01", services.Options{Logger: logger}),
		Rover: services.NewRoverController(gw, domain.RoverQuery{Rover: domain.RoverCuriosity, Sol: 1000}, services.Options{Logger: logger}),
	}
	t.Cleanup(dash.Wait)

	h := NewHandler(dash, journal, config.ViewerSettings{Location: time.UTC, Locale: language.AmericanEnglish})
	h.Now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }

	r := gin.New()
	r.Use(LoggingMiddleware(logger))
	SetupRoutes(r, h)
	return r, dash
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if json.Valid(w.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	r, _ := setup(t, &stubGateway{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestDashboardInitialState(t *testing.T) {
	r, _ := setup(t, &stubGateway{}, nil)

	code, env := do(t, r, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Ok)

	var view DashboardView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.PhaseIdle, view.Apod.Phase)
	assert.Equal(t, "2024-05-01", view.Apod.DraftDate)
	assert.Equal(t, "2024-05-02", view.Apod.MaxDate)
	assert.Equal(t, "1000", view.Rover.DraftSol)
	assert.Equal(t, domain.RoverCuriosity, view.Rover.DraftRover)
	assert.Empty(t, view.Rover.Photos)
}

func TestApodDraftAndSubmit(t *testing.T) {
	r, dash := setup(t, &stubGateway{}, nil)

	code, _ := do(t, r, http.MethodPut, "/apod/draft", `{"date":"2024-04-08"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2024-05-01", dash.Apod.Committed(), "editing the draft must not commit")

	code, env := do(t, r, http.MethodPost, "/apod/submit", "")
	require.Equal(t, http.StatusOK, code)
	var submit struct {
		Committed bool `json:"committed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submit))
	assert.True(t, submit.Committed)
	dash.Wait()

	_, env = do(t, r, http.MethodGet, "/apod", "")
	var view ApodView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.PhaseLoaded, view.Phase)
	require.NotNil(t, view.Record)
	assert.Equal(t, "April 8, 2024", view.Record.DisplayDate)
	assert.True(t, view.Record.IsVideo)
}

func TestApodSubmitEmptyDraft(t *testing.T) {
	r, _ := setup(t, &stubGateway{}, nil)

	do(t, r, http.MethodPut, "/apod/draft", `{"date":""}`)
	_, env := do(t, r, http.MethodPost, "/apod/submit", "")

	var submit struct {
		Committed bool `json:"committed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submit))
	assert.False(t, submit.Committed)
}

func TestApodFailureIsPanelState(t *testing.T) {
	r, dash := setup(t, &stubGateway{apodErr: errors.New("APOD request failed (500): boom")}, nil)

	code, _ := do(t, r, http.MethodPost, "/apod/submit", "")
	require.Equal(t, http.StatusOK, code)
	dash.Wait()

	_, env := do(t, r, http.MethodGet, "/apod", "")
	var view ApodView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.PhaseFailed, view.Phase)
	assert.Equal(t, "APOD request failed (500): boom", view.Error)
	assert.Nil(t, view.Record)
}

func TestBadRequests(t *testing.T) {
	r, _ := setup(t, &stubGateway{}, nil)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{name: "apod not json", path: "/apod/draft", body: `nope`, wantCode: "BAD_REQUEST"},
		{name: "apod missing date", path: "/apod/draft", body: `{}`, wantCode: "BAD_REQUEST"},
		{name: "rover missing", path: "/rover/draft/rover", body: `{}`, wantCode: "BAD_REQUEST"},
		{name: "rover unknown", path: "/rover/draft/rover", body: `{"rover":"sojourner"}`, wantCode: "UNKNOWN_ROVER"},
		{name: "sol missing", path: "/rover/draft/sol", body: `{}`, wantCode: "BAD_REQUEST"},
		{name: "sol bool", path: "/rover/draft/sol", body: `{"sol":true}`, wantCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Ok)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestRoverSubmitEmptySolSetsNotice(t *testing.T) {
	gw := &stubGateway{photos: 1}
	r, _ := setup(t, gw, nil)

	do(t, r, http.MethodPut, "/rover/draft/sol", `{"sol":""}`)
	_, env := do(t, r, http.MethodPost, "/rover/submit", "")

	var submit struct {
		Committed bool      `json:"committed"`
		View      RoverView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submit))
	assert.False(t, submit.Committed)
	assert.Equal(t, "Enter a sol to retrieve imagery.", submit.View.Notice)
	assert.Empty(t, gw.queries)
}

func TestRoverSubmitClampsNumericSol(t *testing.T) {
	gw := &stubGateway{photos: 9}
	r, dash := setup(t, gw, nil)

	code, _ := do(t, r, http.MethodPut, "/rover/draft/rover", `{"rover":"Perseverance"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodPut, "/rover/draft/sol", `{"sol":7000}`)
	require.Equal(t, http.StatusOK, code)
	do(t, r, http.MethodPost, "/rover/submit", "")
	dash.Wait()

	assert.Equal(t, domain.RoverQuery{Rover: domain.RoverPerseverance, Sol: 5000}, gw.lastQuery())

	_, env := do(t, r, http.MethodGet, "/rover", "")
	var view RoverView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.PhaseLoaded, view.Phase)
	assert.Len(t, view.Photos, MaxPhotosShown)
	assert.Equal(t, 9, view.PhotoCount)
	assert.Equal(t, "Mast Camera on sol 5000", view.Photos[0].Alt)
	assert.Equal(t, "May 30, 2015", view.Photos[0].EarthDate)
	require.NotNil(t, view.Manifest)
	assert.Equal(t, "ACTIVE", view.Manifest.Status)
	assert.Equal(t, "695,670", view.Manifest.TotalPhotos)
	assert.Equal(t, "November 26, 2011", view.Manifest.Launch)
}

func TestRoverEmptyResultNotice(t *testing.T) {
	gw := &stubGateway{photos: 0}
	r, dash := setup(t, gw, nil)

	do(t, r, http.MethodPost, "/rover/submit", "")
	dash.Wait()

	_, env := do(t, r, http.MethodGet, "/rover", "")
	var view RoverView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.PhaseLoaded, view.Phase)
	assert.Empty(t, view.Error)
	assert.Contains(t, view.Notice, "No images available for that sol")
	assert.NotNil(t, view.Manifest)
}

func TestRoverNoticeHiddenWhileLoading(t *testing.T) {
	gw := &stubGateway{photos: 0, block: make(chan struct{})}
	r, dash := setup(t, gw, nil)

	do(t, r, http.MethodPost, "/rover/submit", "")
	_, env := do(t, r, http.MethodGet, "/rover", "")
	var view RoverView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Loading)
	assert.Empty(t, view.Notice)

	close(gw.block)
	dash.Wait()
}

func TestRoverOptions(t *testing.T) {
	r, _ := setup(t, &stubGateway{}, nil)

	_, env := do(t, r, http.MethodGet, "/rover/options", "")
	var opts struct {
		Rovers []services.RoverOption `json:"rovers"`
		MaxSol int                    `json:"max_sol"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &opts))
	assert.Len(t, opts.Rovers, 4)
	assert.Equal(t, 5000, opts.MaxSol)
}

func TestListJournal(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		r, _ := setup(t, &stubGateway{}, nil)
		code, env := do(t, r, http.MethodGet, "/journal", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "UNAVAILABLE", env.Error.Code)
	})

	t.Run("lists entries", func(t *testing.T) {
		journal := &stubJournal{items: []domain.FetchRecord{{ID: uuid.New(), Panel: domain.PanelApod, Outcome: domain.OutcomeStale}}}
		r, _ := setup(t, &stubGateway{}, journal)
		code, env := do(t, r, http.MethodGet, "/journal?limit=5", "")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, env.Ok)
		assert.Contains(t, string(env.Data), `"outcome":"stale"`)
	})

	t.Run("store error", func(t *testing.T) {
		r, _ := setup(t, &stubGateway{}, &stubJournal{err: errors.New("db down")})
		_, env := do(t, r, http.MethodGet, "/journal", "")
		assert.False(t, env.Ok)
	})
}

func TestSolText(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: `"42"`, want: "42"},
		{raw: `""`, want: ""},
		{raw: `42`, want: "42"},
		{raw: `-5`, want: "-5"},
		{raw: `null`, want: ""},
		{raw: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := solText(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
