package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Zachdehooge/crossing-dashboard/internal/timefmt"
)

// ErrAPI marks a payload the API itself flagged as unsuccessful.
var ErrAPI = errors.New("train API reported failure")

// Train is one upcoming arrival at the crossing.
type Train struct {
	TrainNo      string `json:"train_no"`
	Name         string `json:"name"`
	Source       string `json:"source"`
	ETA          string `json:"eta_at_crossing"`
	ETAFormatted string `json:"eta_at_crossing_formatted"`
}

// ArrivalTime parses the ETA attribute.
func (t Train) ArrivalTime() (time.Time, bool) {
	at, err := timefmt.ParseTimestamp(t.ETA)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

type CacheInfo struct {
	Cached     bool     `json:"cached"`
	AgeSeconds *float64 `json:"age_seconds,omitempty"`
}

// TrainsResponse is the body of GET /api/trains.
type TrainsResponse struct {
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	NextTrain   *Train     `json:"next_train,omitempty"`
	Trains      []Train    `json:"trains"`
	CacheInfo   *CacheInfo `json:"cache_info,omitempty"`
	TotalTrains *int       `json:"total_trains,omitempty"`
}

// Err returns ErrAPI wrapped with the API's message when Success is false.
func (r *TrainsResponse) Err() error {
	if r.Success {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = "no error message"
	}
	return fmt.Errorf("%w: %s", ErrAPI, msg)
}

// Client fetches train data from the crossing API.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a Client for url. A zero timeout means none.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// FetchTrains performs one request. A success:false payload is returned
// as-is with a nil error; callers decide what to do with it.
func (c *Client) FetchTrains(ctx context.Context) (*TrainsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trains: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload TrainsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API returned non-200 status: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &payload, nil
}

// SortByArrival orders trains by arrival time. Trains without a parseable
// ETA go last, keeping their relative order.
func SortByArrival(trains []Train) []Train {
	sorted := append([]Train(nil), trains...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].ArrivalTime()
		b, bok := sorted[j].ArrivalTime()
		switch {
		case aok && bok:
			return a.Before(b)
		case aok:
			return true
		default:
			return false
		}
	})
	return sorted
}
