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

const wikimediaAPI = "https://commons.wikimedia.org/w/api.php"

// Wikimedia searches Wikimedia Commons files and accepts only entries whose
// license metadata indicates public domain or CC0. Server-side search is not
// license-filtered, so each candidate's extmetadata is checked here.
type Wikimedia struct {
	Client *http.Client
}

func NewWikimedia(timeout time.Duration) *Wikimedia {
	return &Wikimedia{Client: &http.Client{Timeout: timeout}}
}

func (w *Wikimedia) Name() string { return "wikimedia" }

func (w *Wikimedia) Search(ctx context.Context, q Query) (*Descriptor, error) {
	query := q.Text
	resp, err := w.get(ctx, query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()
		resp, err = w.get(ctx, SimplifyQuery(query, 7))
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikimedia status %d", resp.StatusCode)
	}

	var data struct {
		Query struct {
			Pages []struct {
				Title     string `json:"title"`
				ImageInfo []struct {
					URL         string `json:"url"`
					ThumbURL    string `json:"thumburl"`
					ExtMetadata map[string]struct {
						Value string `json:"value"`
					} `json:"extmetadata"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("wikimedia decode: %w", err)
	}

	for _, p := range data.Query.Pages {
		if len(p.ImageInfo) == 0 {
			continue
		}
		info := p.ImageInfo[0]

		licShort := info.ExtMetadata["LicenseShortName"].Value
		lic := info.ExtMetadata["License"].Value
		if !strings.Contains(licShort, "Public domain") && !strings.EqualFold(lic, "CC0") {
			continue
		}

		u := info.ThumbURL
		if u == "" {
			u = info.URL
		}
		if u == "" {
			continue
		}

		license := licShort
		if license == "" {
			license = lic
		}
		if license == "" {
			license = "Public Domain"
		}

		return &Descriptor{
			URL:     u,
			Title:   strings.TrimPrefix(p.Title, "File:"),
			Source:  "Wikimedia Commons",
			Landing: "https://commons.wikimedia.org/wiki/" + url.PathEscape(p.Title),
			License: license,
		}, nil
	}
	return nil, ErrNoResult
}

func (w *Wikimedia) get(ctx context.Context, query string) (*http.Response, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrnamespace", "6") // namespace 6 = File:
	params.Set("gsrlimit", "5")
	params.Set("gsrsearch", query)
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|extmetadata")
	params.Set("iiurlwidth", "1200")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("origin", "*")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikimediaAPI+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	return w.Client.Do(req)
}
