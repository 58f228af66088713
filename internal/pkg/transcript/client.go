package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/cache"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/env"
)

const (
	defaultRapidAPIHost = "youtube-transcript3.p.rapidapi.com"
	cacheKeyTranscript  = "transcript:video:%s" // Format with the video id
	cacheExpiration     = 24 * time.Hour
)

var (
	// ErrInvalidURL signals the input is not a recognizable YouTube URL.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrNotAvailable signals the video has no retrievable transcript.
	ErrNotAvailable = errors.New("transcript not available")
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID pulls the 11-character video id out of the common YouTube
// URL shapes (watch, youtu.be, shorts, embed) or accepts a bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	candidate := ""
	switch host {
	case "youtu.be":
		candidate = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			candidate = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			candidate = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			candidate = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			candidate = strings.TrimPrefix(u.Path, "/live/")
		}
	default:
		return "", ErrInvalidURL
	}

	candidate = strings.Trim(candidate, "/")
	if !videoIDPattern.MatchString(candidate) {
		return "", ErrInvalidURL
	}
	return candidate, nil
}

// Client fetches transcripts from the RapidAPI YouTube transcript service.
type Client struct {
	Host   string
	APIKey string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a transcript client from RAPIDAPI_* environment
// variables.
func NewClientFromEnv() *Client {
	return &Client{
		Host:   strings.TrimSpace(env.GetEnv("RAPIDAPI_HOST", defaultRapidAPIHost)),
		APIKey: strings.TrimSpace(env.GetEnv("RAPIDAPI_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type transcriptResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Transcript []struct {
		Text     string  `json:"text"`
		Offset   float64 `json:"offset"`
		Duration float64 `json:"duration"`
	} `json:"transcript"`
}

// Fetch retrieves the transcript for a video id, using the cache first. The
// upstream service is only hit on a cache miss.
func (c *Client) Fetch(ctx context.Context, videoID string) (models.TranscriptItems, error) {
	if !videoIDPattern.MatchString(videoID) {
		return nil, ErrInvalidURL
	}

	cacheKey := fmt.Sprintf(cacheKeyTranscript, videoID)
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		var items models.TranscriptItems
		if err := json.Unmarshal([]byte(cached), &items); err == nil && len(items) > 0 {
			return items, nil
		}
	}

	items, err := c.fetchRemote(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(items); err == nil {
		_ = cache.Set(cacheKey, string(encoded), cacheExpiration)
	}
	return items, nil
}

func (c *Client) fetchRemote(ctx context.Context, videoID string) (models.TranscriptItems, error) {
	if c.APIKey == "" {
		return nil, errors.New("RAPIDAPI_KEY is not configured")
	}

	endpoint := fmt.Sprintf("https://%s/api/transcript?videoId=%s", c.Host, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-rapidapi-host", c.Host)
	req.Header.Set("x-rapidapi-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotAvailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcript service returned status %d", resp.StatusCode)
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}
	if !parsed.Success || len(parsed.Transcript) == 0 {
		return nil, ErrNotAvailable
	}

	items := make(models.TranscriptItems, 0, len(parsed.Transcript))
	for _, seg := range parsed.Transcript {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		items = append(items, models.TranscriptItem{
			Text:     text,
			Start:    seg.Offset,
			Duration: seg.Duration,
		})
	}
	if len(items) == 0 {
		return nil, ErrNotAvailable
	}
	return items, nil
}
