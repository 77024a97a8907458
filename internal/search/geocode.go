package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/havenline/haven/internal/httpkit"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// Geocoder resolves coordinates to a human-readable place name.
type Geocoder interface {
	// LocationName returns a place string like "Springfield, IL" for
	// the given coordinates.
	LocationName(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim implements Geocoder against the OpenStreetMap Nominatim
// reverse-geocoding API. Nominatim's usage policy requires an
// identifying User-Agent, which the shared httpkit client provides.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatim creates a Nominatim reverse geocoder.
func NewNominatim(timeout time.Duration) *Nominatim {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Nominatim{
		baseURL: nominatimBaseURL,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(timeout),
		),
	}
}

// nominatimResponse is the JSON address document from /reverse.
type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// LocationName reverse-geocodes coordinates at city-level zoom.
// Preference order: "City, State", then "City, Country", then bare
// city. An address with no city-like component is an error.
func (n *Nominatim) LocationName(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"json"},
		"zoom":   {"10"}, // city level
	}

	reqURL := fmt.Sprintf("%s/reverse?%s", n.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return "", fmt.Errorf("nominatim: HTTP %d: %s", resp.StatusCode, body)
	}

	var nr nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return "", fmt.Errorf("nominatim: decode response: %w", err)
	}

	city := nr.Address.City
	if city == "" {
		city = nr.Address.Town
	}
	if city == "" {
		city = nr.Address.Village
	}
	if city == "" {
		return "", fmt.Errorf("nominatim: no city in address for %f,%f", lat, lon)
	}

	switch {
	case nr.Address.State != "":
		return city + ", " + nr.Address.State, nil
	case nr.Address.Country != "":
		return city + ", " + nr.Address.Country, nil
	}
	return city, nil
}
