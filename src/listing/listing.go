// Package listing fetches download-mirror directory pages and returns the
// href of every anchor on them.
package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/sofmeright/nightlyfreight/src/version"
)

// Source returns the raw artifact references listed under a channel URL.
type Source interface {
	Hrefs(ctx context.Context, baseURL string) ([]string, error)
}

// HTTPSource reads listings over HTTP.
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource creates a source. A zero timeout means none.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{client: &http.Client{Timeout: timeout}}
}

// NewHTTPSourceWithClient creates a source around an existing client.
func NewHTTPSourceWithClient(c *http.Client) *HTTPSource {
	return &HTTPSource{client: c}
}

// Hrefs GETs baseURL and extracts anchor hrefs in document order.
func (s *HTTPSource) Hrefs(ctx context.Context, baseURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("listing: create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing: GET %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing: GET %s: status %d", baseURL, resp.StatusCode)
	}

	hrefs, err := ExtractHrefs(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listing: parse %s: %w", baseURL, err)
	}
	return hrefs, nil
}

// ExtractHrefs tokenizes an HTML document and returns the href attribute of
// every <a> element, including empty ones, in document order.
func ExtractHrefs(r io.Reader) ([]string, error) {
	var hrefs []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return hrefs, nil
			}
			return hrefs, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

// StaticSource serves fixed listings keyed by base URL. Unknown URLs return
// an empty listing.
type StaticSource map[string][]string

// Hrefs returns the stored listing for baseURL.
func (s StaticSource) Hrefs(_ context.Context, baseURL string) ([]string, error) {
	return append([]string(nil), s[baseURL]...), nil
}

// LoadStatic reads a YAML map of base URL → href list, used to replay a
// captured listing without network access.
func LoadStatic(path string) (StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string][]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("listing: parse %s: %w", path, err)
	}
	out := StaticSource{}
	for k, v := range raw {
		out[normalizeURL(k)] = v
	}
	return out, nil
}

// URLs returns the stored base URLs, sorted.
func (s StaticSource) URLs() []string {
	urls := make([]string, 0, len(s))
	for u := range s {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func normalizeURL(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
