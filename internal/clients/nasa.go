package clients

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"mission-control/internal/domain"
)

// Endpoint labels used in metrics
const (
	EndpointApod     = "apod"
	EndpointPhotos   = "rover_photos"
	EndpointManifest = "rover_manifest"
)

// NasaClient fetches data from NASA APIs
type NasaClient struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
}

// NewNasaClient creates a new NASA API client
func NewNasaClient(baseURL, apiKey string, timeout time.Duration) *NasaClient {
	return &NasaClient{
		http:    NewHTTPClient(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// FetchApod fetches the Astronomy Picture of the Day. An empty date asks for today's entry.
func (c *NasaClient) FetchApod(ctx context.Context, date string) (*domain.ApodRecord, error) {
	q := c.query()
	// Videos only carry thumbnail_url when asked for.
	q.Set("thumbs", "true")
	if date != "" {
		q.Set("date", date)
	}

	var record domain.ApodRecord
	if err := c.http.GetJSON(ctx, "APOD", EndpointApod, c.url("/planetary/apod", q), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FetchRoverPhotos fetches the photos a rover took on the given sol
func (c *NasaClient) FetchRoverPhotos(ctx context.Context, rover domain.Rover, sol int) ([]domain.RoverPhoto, error) {
	q := c.query()
	q.Set("sol", strconv.Itoa(sol))

	var resp struct {
		Photos []domain.RoverPhoto `json:"photos"`
	}
	path := fmt.Sprintf("/mars-photos/api/v1/rovers/%s/photos", url.PathEscape(string(rover)))
	if err := c.http.GetJSON(ctx, "Mars photos", EndpointPhotos, c.url(path, q), &resp); err != nil {
		return nil, err
	}
	if resp.Photos == nil {
		resp.Photos = []domain.RoverPhoto{}
	}
	return resp.Photos, nil
}

// FetchRoverManifest fetches the mission manifest of a rover
func (c *NasaClient) FetchRoverManifest(ctx context.Context, rover domain.Rover) (*domain.RoverManifest, error) {
	var resp struct {
		Manifest *domain.RoverManifest `json:"photo_manifest"`
	}
	path := fmt.Sprintf("/mars-photos/api/v1/manifests/%s", url.PathEscape(string(rover)))
	if err := c.http.GetJSON(ctx, "Mars mission manifest", EndpointManifest, c.url(path, c.query()), &resp); err != nil {
		return nil, err
	}
	if resp.Manifest == nil {
		return nil, errors.New("Mars mission manifest response has no photo_manifest")
	}
	return resp.Manifest, nil
}

func (c *NasaClient) query() url.Values {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	return q
}

func (c *NasaClient) url(path string, q url.Values) string {
	return c.baseURL + path + "?" + q.Encode()
}
