package backend

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	rateLimitResetHeader = "X-RateLimit-Reset"
	unknownErrorMessage  = "An unknown error occurred."
)

// completionEnvelope covers both the success and the error shape of an
// OpenAI-compatible chat completion response.
type completionEnvelope struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Message  string `json:"message"`
	Metadata struct {
		Headers map[string]json.RawMessage `json:"headers"`
		Raw     json.RawMessage            `json:"raw"`
	} `json:"metadata"`
}

// resetTime extracts the rate limit reset instant from the error metadata.
// The header value is an epoch timestamp in milliseconds, sent either as a
// JSON string or a number.
func (e *errorBody) resetTime() (time.Time, bool) {
	if e == nil {
		return time.Time{}, false
	}
	raw, ok := e.Metadata.Headers[rateLimitResetHeader]
	if !ok {
		for k, v := range e.Metadata.Headers {
			if strings.EqualFold(k, rateLimitResetHeader) {
				raw, ok = v, true
				break
			}
		}
	}
	if !ok {
		return time.Time{}, false
	}
	ms, ok := parseEpochMillis(raw)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// describe returns the most specific message available: metadata.raw, then
// error.message, then a generic fallback.
func (e *errorBody) describe() string {
	if e == nil {
		return unknownErrorMessage
	}
	if s := rawText(e.Metadata.Raw); s != "" {
		return s
	}
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return unknownErrorMessage
}

func parseEpochMillis(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if strings.HasPrefix(s, `"`) {
		var unq string
		if err := json.Unmarshal(raw, &unq); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int64(f), true
}

func rawText(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	return s
}
