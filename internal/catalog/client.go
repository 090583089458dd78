package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/TinyKitten/TrainLCDWeb/internal/domain"
)

// Client talks to the remote station catalog API. The catalog computes the
// distance from the queried point itself; the returned kilometers are passed
// through untouched.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiLine struct {
	ID        int    `json:"id"`
	ColorCode string `json:"lineColorC"`
}

type apiStation struct {
	GroupID   int       `json:"stationGroupId"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Lines     []apiLine `json:"lines"`
	Distance  float64   `json:"distance"`
}

// NearestStation returns the station closest to the given point.
func (c *Client) NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))

	reqURL := fmt.Sprintf("%s/stations/nearby?%s", c.baseURL, params.Encode())

	var stations []apiStation
	if err := c.getJSON(ctx, reqURL, &stations); err != nil {
		return domain.Station{}, err
	}
	if len(stations) == 0 {
		return domain.Station{}, fmt.Errorf("no station near %f,%f", lat, lon)
	}
	return toDomain(stations[0]), nil
}

// StationsByLine returns the line's full station sequence in canonical
// terminal-to-terminal order.
func (c *Client) StationsByLine(ctx context.Context, lineID int) ([]domain.Station, error) {
	reqURL := fmt.Sprintf("%s/lines/%d/stations", c.baseURL, lineID)

	var stations []apiStation
	if err := c.getJSON(ctx, reqURL, &stations); err != nil {
		return nil, err
	}

	result := make([]domain.Station, 0, len(stations))
	for _, s := range stations {
		result = append(result, toDomain(s))
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func toDomain(s apiStation) domain.Station {
	lines := make([]domain.Line, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, domain.Line{ID: l.ID, Color: l.ColorCode})
	}
	return domain.Station{
		GroupID:   s.GroupID,
		Name:      s.Name,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Lines:     lines,
		Distance:  s.Distance,
	}
}
