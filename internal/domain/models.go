// Package domain provides domain models for the application
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rover identifies a Mars rover known to the photo API
type Rover string

// Known rovers, in display order
const (
	RoverCuriosity    Rover = "curiosity"
	RoverPerseverance Rover = "perseverance"
	RoverOpportunity  Rover = "opportunity"
	RoverSpirit       Rover = "spirit"
)

// Panel names a dashboard panel
type Panel string

const (
	PanelApod  Panel = "apod"
	PanelRover Panel = "rover"
)

// Phase is the lifecycle position of a panel
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// ApodRecord is a single Astronomy Picture of the Day entry
type ApodRecord struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Explanation  string `json:"explanation"`
	MediaType    string `json:"media_type"`
	URL          string `json:"url"`
	HDURL        string `json:"hdurl,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Copyright    string `json:"copyright,omitempty"`
}

// IsVideo reports whether the record must be embedded rather than shown as an image
func (r ApodRecord) IsVideo() bool {
	return r.MediaType == "video"
}

// RoverCamera describes the camera that took a rover photo
type RoverCamera struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// RoverPhoto is a single rover image
type RoverPhoto struct {
	ID        int64       `json:"id"`
	Sol       int         `json:"sol"`
	Camera    RoverCamera `json:"camera"`
	ImgSrc    string      `json:"img_src"`
	EarthDate string      `json:"earth_date"`
}

// RoverManifest is aggregate mission metadata for a rover
type RoverManifest struct {
	Name        string `json:"name"`
	LaunchDate  string `json:"launch_date"`
	LandingDate string `json:"landing_date"`
	Status      string `json:"status"`
	MaxSol      int    `json:"max_sol"`
	MaxDate     string `json:"max_date"`
	TotalPhotos int64  `json:"total_photos"`
}

// RoverQuery is the committed rover selection
type RoverQuery struct {
	Rover Rover `json:"rover"`
	Sol   int   `json:"sol"`
}

// ApodPanel is the visible state of the APOD panel
type ApodPanel struct {
	Phase    Phase       `json:"phase"`
	Loading  bool        `json:"loading"`
	Error    string      `json:"error,omitempty"`
	Data     *ApodRecord `json:"data"`
	Date     string      `json:"date"`
	CommitID uuid.UUID   `json:"commit_id"`
}

// RoverPanel is the visible state of the rover panel
type RoverPanel struct {
	Phase    Phase          `json:"phase"`
	Loading  bool           `json:"loading"`
	Error    string         `json:"error,omitempty"`
	Notice   string         `json:"notice,omitempty"`
	Photos   []RoverPhoto   `json:"photos"`
	Manifest *RoverManifest `json:"manifest"`
	Query    RoverQuery     `json:"query"`
	CommitID uuid.UUID      `json:"commit_id"`
}

// Outcome is how a load resolved
type Outcome string

const (
	OutcomeLoaded Outcome = "loaded"
	OutcomeFailed Outcome = "failed"
	OutcomeStale  Outcome = "stale"
)

// FetchRecord is a journal entry for one resolved load
type FetchRecord struct {
	ID          uuid.UUID   `json:"id"`
	Panel       Panel       `json:"panel"`
	Query       interface{} `json:"query"`
	Outcome     Outcome     `json:"outcome"`
	Message     string      `json:"message,omitempty"`
	PhotoCount  int         `json:"photo_count"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
}

// Health represents health check response
type Health struct {
	Status string    `json:"status"`
	Now    time.Time `json:"now"`
}

// ApiResponse wraps API responses
type ApiResponse struct {
	Ok    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ApiError   `json:"error,omitempty"`
}

// ApiError represents an error response
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse creates a successful response
func SuccessResponse(data interface{}) ApiResponse {
	return ApiResponse{Ok: true, Data: data}
}

// ErrorResponse creates an error response
func ErrorResponse(code, message string) ApiResponse {
	return ApiResponse{Ok: false, Error: &ApiError{Code: code, Message: message}}
}
