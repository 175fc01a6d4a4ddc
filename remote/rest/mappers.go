package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jpalmerr/longrun"
)

// errNoStatus is returned by a [StatusMapper] that found nothing to map.
// [FirstMatch] moves on to the next mapper when it sees it.
var errNoStatus = errors.New("no status in response")

// StatusMapper determines the operation status from one status response.
type StatusMapper func(body []byte, statusCode int) (longrun.Status, error)

// HTTPStatusMapper determines status from the HTTP status code alone, for
// services that answer 202 Accepted until the operation is done.
//
// Status mapping:
//   - 202: [longrun.StatusRunning]
//   - other 2xx: [longrun.StatusSucceeded]
//   - anything else: no status
var HTTPStatusMapper StatusMapper = func(body []byte, statusCode int) (longrun.Status, error) {
	switch {
	case statusCode == http.StatusAccepted:
		return longrun.StatusRunning, nil
	case statusCode >= 200 && statusCode < 300:
		return longrun.StatusSucceeded, nil
	default:
		return "", errNoStatus
	}
}

// JSONFieldMapper returns a [StatusMapper] that reads the status word from a
// JSON field using dot notation to navigate nested objects.
//
// The word is looked up case-insensitively in words first, then mapped with
// [longrun.ParseStatus]. A missing field yields no status; a word that maps
// to nothing is an error.
//
// Example:
//
//	// For response: {"job": {"state": "DONE"}}
//	mapper := rest.JSONFieldMapper("job.state", map[string]longrun.Status{"done": longrun.StatusSucceeded})
func JSONFieldMapper(path string, words map[string]longrun.Status) StatusMapper {
	parts := strings.Split(path, ".")

	table := make(map[string]longrun.Status, len(words))
	for k, v := range words {
		table[strings.ToLower(k)] = v
	}

	return func(body []byte, statusCode int) (longrun.Status, error) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", errNoStatus
		}

		value := extractString(extractJSONPath(data, parts))
		if value == "" {
			return "", errNoStatus
		}

		if status, ok := table[strings.ToLower(value)]; ok {
			return status, nil
		}
		return longrun.ParseStatus(value)
	}
}

// FirstMatch returns a [StatusMapper] that tries multiple mappers in order,
// returning the first status found. Errors other than "no status" stop the
// search.
//
// Example:
//
//	// Try JSON field first, fall back to HTTP status code
//	mapper := rest.FirstMatch(
//	    rest.JSONFieldMapper("status", nil),
//	    rest.HTTPStatusMapper,
//	)
func FirstMatch(mappers ...StatusMapper) StatusMapper {
	return func(body []byte, statusCode int) (longrun.Status, error) {
		for _, mapper := range mappers {
			status, err := mapper(body, statusCode)
			if errors.Is(err, errNoStatus) {
				continue
			}
			return status, err
		}
		return "", fmt.Errorf("%w (http %d)", errNoStatus, statusCode)
	}
}

// DefaultMapper is the [StatusMapper] used when none is configured: the
// "status" field, falling back to the HTTP status code.
var DefaultMapper = FirstMatch(
	JSONFieldMapper("status", nil),
	HTTPStatusMapper,
)

// extractJSONPath walks a JSON structure using dot notation parts.
// It returns nil when the path does not exist.
func extractJSONPath(data interface{}, parts []string) interface{} {
	current := data

	for _, part := range parts {
		if part == "" {
			continue
		}
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = obj[part]
		if !ok {
			return nil
		}
	}

	return current
}

// extractString renders a scalar JSON value as a string. Objects, arrays and
// null yield "".
func extractString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// lookup returns the string at a dot path of a JSON document, or "".
func lookup(body []byte, path string) string {
	if path == "" {
		return ""
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return ""
	}
	return extractString(extractJSONPath(data, strings.Split(path, ".")))
}

// lookupRaw returns the JSON value at a dot path of a JSON document.
// An empty path returns the whole document.
func lookupRaw(body []byte, path string) (json.RawMessage, error) {
	if path == "" {
		return json.RawMessage(body), nil
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	v := extractJSONPath(data, strings.Split(path, "."))
	if v == nil {
		return nil, fmt.Errorf("no value at %q", path)
	}
	return json.Marshal(v)
}
