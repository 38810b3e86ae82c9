package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	// ErrAuthFailure means calendar credentials are missing or rejected.
	ErrAuthFailure = errors.New("calendar authentication failed")
	// ErrNotFound means the calendar or event does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransientAPI covers network failures, rate limits and 5xx responses.
	ErrTransientAPI = errors.New("transient calendar API error")
	// ErrFatalConfig means the desired set itself is malformed.
	ErrFatalConfig = errors.New("fatal configuration error")
)

// RemoteFetchError is returned when the tournament source is unreachable or
// answers with a non-2xx status.
type RemoteFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

// classifyAPIError wraps a calendar API error with the matching sentinel.
func classifyAPIError(op string, err error) error {
	if err == nil {
		return nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrAuthFailure, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden && rateLimited(apiErr):
			return fmt.Errorf("%s: %w: %v", op, ErrTransientAPI, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, ErrAuthFailure, err)
		case apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone:
			return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return fmt.Errorf("%s: %w: %v", op, ErrTransientAPI, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrTransientAPI, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func rateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}
