// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request bodies,
// path values and query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetwise/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxBackupBytes = 32 << 20
)

var errEmptyBody = errors.New("request body is empty")

// DecodeJSON reads exactly one JSON value from the body into dst. Unknown
// fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected data after the first value")
	}
	return nil
}

// ReadBody returns the raw body, capped at limit bytes.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, errEmptyBody
	}
	return data, nil
}

// ParsePeriod validates a budget or report period.
func ParsePeriod(s string) (core.Period, error) {
	p := core.Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidPeriod, s)
	}
	return p, nil
}

// ParseRefDate reads the optional "date" query parameter (YYYY-MM-DD or
// RFC 3339), falling back to now.
func ParseRefDate(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return now, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// ParseLimit reads the optional "limit" query parameter. Zero means no limit.
func ParseLimit(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(query url.Values, key string) (value, set bool, err error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, true, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
