package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const apiIndexPath = "/api/index.json"

// APIIndex lists the sources the tournament API serves.
type APIIndex struct {
	APIs []APIEntry `json:"apis" validate:"dive"`
}

type APIEntry struct {
	ID        string     `json:"id" validate:"required"`
	Name      string     `json:"name"`
	Endpoints []Endpoint `json:"endpoints" validate:"dive"`
}

type Endpoint struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required"`
}

// TournamentEndpoint returns the first endpoint whose name or description
// mentions tournaments.
func (e APIEntry) TournamentEndpoint() (Endpoint, bool) {
	for _, ep := range e.Endpoints {
		if strings.Contains(strings.ToLower(ep.Name), "tournament") ||
			strings.Contains(strings.ToLower(ep.Description), "tournament") {
			return ep, true
		}
	}
	return Endpoint{}, false
}

func (idx APIIndex) SourceIDs() []string {
	ids := make([]string, 0, len(idx.APIs))
	for _, api := range idx.APIs {
		ids = append(ids, api.ID)
	}
	return ids
}

// TournamentSource is the read-only tournament API.
type TournamentSource struct {
	baseURL string
	client  *http.Client
}

func NewTournamentSource(baseURL string, timeout time.Duration) *TournamentSource {
	return &TournamentSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(timeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

func (s *TournamentSource) FetchIndex(ctx context.Context) (*APIIndex, error) {
	body, err := s.get(ctx, s.baseURL+apiIndexPath)
	if err != nil {
		return nil, err
	}
	var index APIIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("decode API index: %w", err)
	}
	if err := validate.Struct(index); err != nil {
		return nil, fmt.Errorf("invalid API index: %w", err)
	}
	return &index, nil
}

// FetchTournaments returns the raw tournament payload of one source.
func (s *TournamentSource) FetchTournaments(ctx context.Context, sourceID string) ([]byte, error) {
	index, err := s.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	var entry *APIEntry
	for i := range index.APIs {
		if index.APIs[i].ID == sourceID {
			entry = &index.APIs[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("API for source %s not found in the API index", sourceID)
	}

	endpoint, ok := entry.TournamentEndpoint()
	if !ok {
		return nil, fmt.Errorf("tournament endpoint for %s not found", sourceID)
	}

	target := endpoint.URL
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = s.baseURL + "/" + strings.TrimLeft(target, "/")
	}
	log.WithFields(log.Fields{"source": sourceID, "url": target}).Debug("Fetching tournament data")
	return s.get(ctx, target)
}

func (s *TournamentSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RemoteFetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RemoteFetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &RemoteFetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteFetchError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}
