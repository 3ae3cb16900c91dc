package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"refinery-ops/internal/platform/listing"
	"refinery-ops/internal/platform/postgres"
)

const timeLayout = time.RFC3339

// ListParams are the paging, sorting and search parameters shared by list endpoints.
type ListParams = listing.Params

// ParseListParams reads q, sort, limit and offset.
func ParseListParams(r *http.Request) (ListParams, error) {
	q := r.URL.Query()
	params := ListParams{
		Q:     strings.TrimSpace(q.Get("q")),
		Sort:  strings.TrimSpace(q.Get("sort")),
		Limit: postgres.DefaultLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return ListParams{}, errors.New("limit must be a positive integer")
		}
		if limit > postgres.MaxLimit {
			limit = postgres.MaxLimit
		}
		params.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return ListParams{}, errors.New("offset must be a non-negative integer")
		}
		params.Offset = offset
	}
	return params, nil
}

// ParseTimeQuery parses a required RFC3339 query parameter.
func ParseTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	return parseTime(key, value)
}

// OptionalTimeQuery parses an RFC3339 query parameter, returning zero when absent.
func OptionalTimeQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, nil
	}
	return parseTime(key, value)
}

// ParseWindow reads optional from/to and rejects inverted ranges.
func ParseWindow(r *http.Request) (time.Time, time.Time, error) {
	from, err := OptionalTimeQuery(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := OptionalTimeQuery(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}

// OptionalBoolQuery parses a boolean query parameter, returning nil when absent.
func OptionalBoolQuery(r *http.Request, key string) (*bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return nil, errors.New(key + " must be a boolean")
	}
	return &parsed, nil
}

func parseTime(key, value string) (time.Time, error) {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return parsed.UTC(), nil
}
