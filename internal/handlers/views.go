package handlers

import (
	"fmt"
	"time"

	"mission-control/internal/config"
	"mission-control/internal/domain"
	"mission-control/internal/services"
)

// MaxPhotosShown is how many rover photos a view carries
const MaxPhotosShown = 6

// ApodView is the render-ready APOD panel
type ApodView struct {
	Phase     domain.Phase  `json:"phase"`
	Loading   bool          `json:"loading"`
	Error     string        `json:"error,omitempty"`
	DraftDate string        `json:"draft_date"`
	Date      string        `json:"date"`
	MaxDate   string        `json:"max_date"`
	Record    *ApodItemView `json:"record,omitempty"`
}

// ApodItemView is a displayed APOD entry
type ApodItemView struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	DisplayDate  string `json:"display_date"`
	Explanation  string `json:"explanation"`
	MediaType    string `json:"media_type"`
	IsVideo      bool   `json:"is_video"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Copyright    string `json:"copyright,omitempty"`
}

// RoverView is the render-ready rover panel
type RoverView struct {
	Phase      domain.Phase      `json:"phase"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Notice     string            `json:"notice,omitempty"`
	DraftRover domain.Rover      `json:"draft_rover"`
	DraftSol   string            `json:"draft_sol"`
	Query      domain.RoverQuery `json:"query"`
	Manifest   *ManifestView     `json:"manifest,omitempty"`
	Photos     []PhotoView       `json:"photos"`
	PhotoCount int               `json:"photo_count"`
	MinSol     int               `json:"min_sol"`
	MaxSol     int               `json:"max_sol"`
}

// ManifestView is a displayed rover manifest
type ManifestView struct {
	Name        string `json:"name"`
	Launch      string `json:"launch"`
	Landing     string `json:"landing"`
	Status      string `json:"status"`
	MaxSol      int    `json:"max_sol"`
	MaxDate     string `json:"max_date"`
	TotalPhotos string `json:"total_photos"`
}

// PhotoView is a displayed rover photo
type PhotoView struct {
	ID        int64  `json:"id"`
	ImgSrc    string `json:"img_src"`
	Alt       string `json:"alt"`
	Camera    string `json:"camera"`
	Sol       int    `json:"sol"`
	EarthDate string `json:"earth_date"`
}

// DashboardView holds both panels
type DashboardView struct {
	Apod  ApodView  `json:"apod"`
	Rover RoverView `json:"rover"`
}

func buildApodView(c *services.ApodController, now time.Time, viewer config.ViewerSettings) ApodView {
	state := c.State()
	view := ApodView{
		Phase:     state.Phase,
		Loading:   state.Loading,
		Error:     state.Error,
		DraftDate: c.Draft(),
		Date:      state.Date,
		MaxDate:   services.Today(now, viewer.Location),
	}
	if !state.Loading && state.Data != nil {
		d := state.Data
		view.Record = &ApodItemView{
			Title:        d.Title,
			Date:         d.Date,
			DisplayDate:  services.PrettyDate(d.Date),
			Explanation:  d.Explanation,
			MediaType:    d.MediaType,
			IsVideo:      d.IsVideo(),
			URL:          d.URL,
			ThumbnailURL: d.ThumbnailURL,
			Copyright:    d.Copyright,
		}
	}
	return view
}

func buildRoverView(c *services.RoverController, viewer config.ViewerSettings) RoverView {
	state := c.State()
	rover, sol := c.Draft()
	view := RoverView{
		Phase:      state.Phase,
		Loading:    state.Loading,
		Error:      state.Error,
		DraftRover: rover,
		DraftSol:   sol,
		Query:      state.Query,
		Photos:     []PhotoView{},
		PhotoCount: len(state.Photos),
		MinSol:     services.MinSol,
		MaxSol:     services.MaxSol,
	}
	if !state.Loading && state.Error == "" {
		view.Notice = state.Notice
	}
	if m := state.Manifest; m != nil {
		view.Manifest = &ManifestView{
			Name:        m.Name,
			Launch:      services.PrettyDate(m.LaunchDate),
			Landing:     services.PrettyDate(m.LandingDate),
			Status:      services.FormatStatus(m.Status),
			MaxSol:      m.MaxSol,
			MaxDate:     services.PrettyDate(m.MaxDate),
			TotalPhotos: services.FormatCount(viewer.Locale, m.TotalPhotos),
		}
	}

	photos := state.Photos
	if len(photos) > MaxPhotosShown {
		photos = photos[:MaxPhotosShown]
	}
	for _, p := range photos {
		view.Photos = append(view.Photos, PhotoView{
			ID:        p.ID,
			ImgSrc:    p.ImgSrc,
			Alt:       fmt.Sprintf("%s on sol %d", p.Camera.FullName, p.Sol),
			Camera:    p.Camera.FullName,
			Sol:       p.Sol,
			EarthDate: services.PrettyDate(p.EarthDate),
		})
	}
	return view
}
