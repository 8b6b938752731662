// Package http: request parsing helpers shared by the handlers.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"takings/internal/core"
)

// bodyPayload reads a request body once and serves string lookups from
// either a JSON object or form-encoded data.
type bodyPayload struct {
	jsonData map[string]any
	formData url.Values
}

func parseBody(r *http.Request) (*bodyPayload, error) {
	p := &bodyPayload{}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		p.jsonData = make(map[string]any)
		if len(body) > 0 {
			if err := json.Unmarshal(body, &p.jsonData); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	p.formData = r.Form
	return p, nil
}

// Get returns the trimmed string value for a key from whichever body shape
// was parsed. JSON numbers come back in their literal form so numeric
// fields go through the same string validation as form input.
func (p *bodyPayload) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(stringValue(val))
		}
		return ""
	}
	return strings.TrimSpace(p.formData.Get(key))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}

// parseCount parses a non-negative integer field. Genuinely empty input
// defaults to zero; anything non-numeric is rejected rather than coerced.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, core.ErrInvalidCount
	}
	return n, nil
}

// parseDateQuery reads an ISO date query parameter. Missing or malformed
// values report ok=false; the caller decides the fallback.
func parseDateQuery(q url.Values, key string) (core.Date, bool) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, false
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, false
	}
	return d, true
}

// resolveRangeQuery turns the query parameters of the stats/chart endpoints
// into concrete inclusive bounds. Precedence: explicit range_type preset,
// then month=YYYY-MM, then start/end, then the given default preset.
// Malformed tokens fall back to the default range rather than failing the
// request.
func resolveRangeQuery(q url.Values, def core.RangeType) (core.Date, core.Date) {
	today := core.Today()
	start, hasStart := parseDateQuery(q, "start")
	end, hasEnd := parseDateQuery(q, "end")

	if rt := core.RangeType(strings.TrimSpace(q.Get("range_type"))); rt != "" {
		switch rt {
		case core.RangeThisMonth, core.RangeThisWeek, core.RangeLast30Days:
			return core.ResolveRange(rt, core.Date{}, core.Date{}, today)
		case core.RangeCustom:
			return core.ResolveRange(rt, start, end, today)
		}
		// Unknown token: fall through to the remaining parameters.
	}

	if m := strings.TrimSpace(q.Get("month")); m != "" {
		if first, last, err := core.MonthRange(m); err == nil {
			return first, last
		}
	}

	if hasStart && hasEnd {
		return start, end
	}

	return core.ResolveRange(def, core.Date{}, core.Date{}, today)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
