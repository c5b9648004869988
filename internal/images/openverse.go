package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const openverseAPI = "https://api.openverse.engineering/v1/images/"

// userAgent identifies us to the image APIs, as both ask polite clients to do.
const userAgent = "futurumpress-newsgen/1.0 (+https://example.com)"

// allowed licenses: strictly no-copyright only.
const openverseLicenses = "cc0,pdm"

// Openverse searches the Openverse CC catalog, restricted to public-domain
// equivalent licenses. A rejected (HTTP 400) query is retried once in
// simplified form.
type Openverse struct {
	Client *http.Client
}

func NewOpenverse(timeout time.Duration) *Openverse {
	return &Openverse{Client: &http.Client{Timeout: timeout}}
}

func (o *Openverse) Name() string { return "openverse" }

func (o *Openverse) Search(ctx context.Context, q Query) (*Descriptor, error) {
	query := q.Text
	resp, err := o.get(ctx, query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()
		resp, err = o.get(ctx, SimplifyQuery(query, 7))
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openverse status %d", resp.StatusCode)
	}

	var data struct {
		Results []struct {
			URL               string `json:"url"`
			Thumbnail         string `json:"thumbnail"`
			Title             string `json:"title"`
			Source            string `json:"source"`
			ForeignLandingURL string `json:"foreign_landing_url"`
			License           string `json:"license"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("openverse decode: %w", err)
	}

	for _, it := range data.Results {
		u := it.URL
		if u == "" {
			u = it.Thumbnail
		}
		if u == "" {
			continue
		}
		title := it.Title
		if title == "" {
			title = query
		}
		source := it.Source
		if source == "" {
			source = "Openverse"
		}
		landing := it.ForeignLandingURL
		if landing == "" {
			landing = u
		}
		lic := it.License
		if lic == "" {
			lic = "cc0"
		}
		return &Descriptor{
			URL:     u,
			Title:   title,
			Source:  source,
			Landing: landing,
			License: strings.ToUpper(lic),
		}, nil
	}
	return nil, ErrNoResult
}

func (o *Openverse) get(ctx context.Context, query string) (*http.Response, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("license", openverseLicenses)
	params.Set("page_size", "3")
	params.Set("mature", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openverseAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	return o.Client.Do(req)
}
