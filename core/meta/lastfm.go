// Package meta looks up supplemental track metadata (cover art, album name,
// description) from the Last.fm track.getinfo endpoint.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the default Last.fm API endpoint.
const DefaultBaseURL = "http://ws.audioscrobbler.com/2.0"

// Enrichment carries the fields merged into a Track when a lookup succeeds.
type Enrichment struct {
	Album     string // cover image URL (the "large" variant)
	AlbumName string
	Wiki      string
}

// Config holds client configuration.
type Config struct {
	APIKey     string        // Required: Last.fm API key
	BaseURL    string        // Optional: defaults to DefaultBaseURL, used for testing
	HTTPClient *http.Client  // Optional: defaults to a client with Timeout
	Timeout    time.Duration // Optional: per-lookup bound, defaults to 10s
}

// Client queries the Last.fm API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a new Last.fm lookup client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

type trackInfoResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Track   *struct {
		Artist *struct {
			Name string `json:"name"`
		} `json:"artist"`
		Album *struct {
			Title string `json:"title"`
			Image []struct {
				URL  string `json:"#text"`
				Size string `json:"size"`
			} `json:"image"`
		} `json:"album"`
		Wiki *struct {
			Summary string `json:"summary"`
			Content string `json:"content"`
		} `json:"wiki"`
	} `json:"track"`
}

// coverImageIndex selects the "large" variant from the small-to-large
// ordered image list Last.fm returns.
const coverImageIndex = 2

// TrackInfo looks up enrichment data for an artist/title pair.
//
// A Last.fm error body (numeric "error" field) and a response without album
// and artist data are both "no match": they return (nil, nil). Only
// transport-level and decoding failures return an error.
func (c *Client) TrackInfo(ctx context.Context, artist, title string) (*Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("method", "track.getinfo")
	params.Set("api_key", c.apiKey)
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("meta: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta: track.getinfo: %w", err)
	}
	defer resp.Body.Close()

	var body trackInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("meta: decode track.getinfo response: %w", err)
	}

	if body.Error != 0 || body.Track == nil || body.Track.Album == nil || body.Track.Artist == nil {
		return nil, nil
	}

	enr := &Enrichment{AlbumName: body.Track.Album.Title}
	if images := body.Track.Album.Image; len(images) > coverImageIndex {
		enr.Album = images[coverImageIndex].URL
	}
	if body.Track.Wiki != nil {
		enr.Wiki = body.Track.Wiki.Summary
	}
	return enr, nil
}
