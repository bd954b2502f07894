package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Config drives MCA registry client behaviour.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Rows      int
}

// Client performs company searches against the registrar data API with
// basic caching and rate-limit handling.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	rows       int
	cacheTTL   time.Duration
	cache      sync.Map // map[string]cacheEntry
}

type cacheEntry struct {
	at      time.Time
	entries []Entry
}

// ErrMissingCredentials is returned when the client cannot authenticate.
var ErrMissingCredentials = errors.New("registry client missing api credentials")

// NewClient constructs a registry client if configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.finanvo.in/company/search"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	rows := cfg.Rows
	if rows <= 0 {
		rows = 25
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		rows:       rows,
		cacheTTL:   ttl,
	}, nil
}

// FetchCandidates searches the registrar API for companies matching the
// supplied normalized name.
func (c *Client) FetchCandidates(ctx context.Context, query string) ([]Entry, error) {
	if c == nil {
		return nil, errors.New("registry client is nil")
	}

	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return nil, nil
	}

	if cached, ok := c.cache.Load(key); ok {
		entry := cached.(cacheEntry)
		if time.Since(entry.at) < c.cacheTTL {
			return entry.entries, nil
		}
		c.cache.Delete(key)
	}

	entries, err := c.performRequest(ctx, key)
	if err != nil {
		return nil, err
	}

	c.cache.Store(key, cacheEntry{at: time.Now(), entries: entries})
	return entries, nil
}

func (c *Client) performRequest(ctx context.Context, query string) ([]Entry, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("rows", fmt.Sprintf("%d", c.rows))

	endpoint := c.baseURL
	if strings.Contains(endpoint, "?") {
		endpoint = endpoint + "&" + params.Encode()
	} else {
		endpoint = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-api-secret-key", c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// back off briefly and retry once
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
		resp.Body.Close()
		retryReq, retryErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if retryErr != nil {
			return nil, retryErr
		}
		retryReq.Header = req.Header.Clone()
		resp, err = c.httpClient.Do(retryReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry api status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	var entries []Entry
	for _, item := range payload.Companies {
		name := strings.TrimSpace(item.CompanyName)
		if name == "" {
			continue
		}
		entries = append(entries, Entry{
			CompanyName: name,
			CIN:         strings.TrimSpace(item.CIN),
		})
	}
	return entries, nil
}

type searchResponse struct {
	Companies []searchResult `json:"companies"`
}

type searchResult struct {
	CompanyName string `json:"company_name"`
	CIN         string `json:"CIN"`
}
