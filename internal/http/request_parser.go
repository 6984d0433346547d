// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing request bodies and query
// parameters shared by the handlers.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/services"
)

// maxBodyBytes caps JSON and form bodies.
const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// Time returns the first instant of the month in UTC.
func (m MonthParams) Time() time.Time {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonthParams extracts year and month from query parameters. Missing,
// unparseable or out of range values fall back to the month of now.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// ParseFilter reads the payment and category query parameters. An unknown
// category is an error; payment methods are matched case-insensitively by
// the service.
func ParseFilter(query url.Values) (services.Filter, error) {
	var f services.Filter
	if v := sanitizeInput(query.Get("payment")); v != "" {
		f.PaymentMethod = core.PaymentMethod(v)
	}
	if v := sanitizeInput(query.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return services.Filter{}, err
		}
		f.Category = c
	}
	return f, nil
}

// RequestBodyParser handles JSON and form-encoded request bodies behind a
// single Get accessor.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the request body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the first non-empty value among keys, sanitized.
func (p *RequestBodyParser) Get(keys ...string) string {
	for _, key := range keys {
		if p.jsonData != nil {
			if val, ok := p.jsonData[key]; ok {
				if s := sanitizeInput(stringValue(val)); s != "" {
					return s
				}
			}
		}
		if p.formData != nil {
			if s := sanitizeInput(p.formData.Get(key)); s != "" {
				return s
			}
		}
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Raw returns the body as read.
func (p *RequestBodyParser) Raw() []byte {
	return p.body
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
