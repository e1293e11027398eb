// Package holiday fetches the external holiday calendar feed and
// normalizes its events.
//
// The feed is the only call in the core with real external latency; a
// single-year fetch either completes or fails outright. The multi-year
// variant keeps going when one year fails - a missing year is a gap in
// the calendar, not a reason to drop the rest.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Event is a normalized holiday feed entry. Date is an ISO-8601 date;
// Name has been translated to the target language where a mapping
// exists.
type Event struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Note string `json:"note"`
}

// NetworkError indicates the feed was unreachable or answered with a
// non-success status for a year.
type NetworkError struct {
	Year   int
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("holiday feed for %d: %v", e.Year, e.Err)
	}
	return fmt.Sprintf("holiday feed for %d: status %d", e.Year, e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Client fetches and translates holiday events.
type Client struct {
	base       string
	httpClient *http.Client
	translator *Translator
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. Tests point it at httptest
// servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTranslator replaces the default name translation table.
func WithTranslator(t *Translator) Option {
	return func(c *Client) { c.translator = t }
}

// WithLogger sets the diagnostic logger. Defaults to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a feed client. base is the feed URL without the year
// segment, e.g. "https://feed.example/holidays".
func NewClient(base string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: http.DefaultClient,
		translator: DefaultTranslator(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Year fetches the events for a single year. Failure propagates as a
// *NetworkError - there is no sensible partial result for one year.
func (c *Client) Year(ctx context.Context, year int) ([]Event, error) {
	url := fmt.Sprintf("%s/%d", c.base, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Year: year, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Year: year, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Year: year, Status: resp.StatusCode}
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, &NetworkError{Year: year, Err: fmt.Errorf("decode: %w", err)}
	}

	for i := range events {
		events[i].Name = c.translator.Translate(events[i].Name)
	}
	return events, nil
}

// Range fetches the closed year range [from, to], continuing past
// per-year failures. Failed years are logged and skipped; the returned
// events cover every year that answered.
func (c *Client) Range(ctx context.Context, from, to int) []Event {
	events := []Event{}
	for year := from; year <= to; year++ {
		yearEvents, err := c.Year(ctx, year)
		if err != nil {
			c.log.Warn("holiday feed year failed, skipping",
				zap.Int("year", year),
				zap.Error(err))
			continue
		}
		events = append(events, yearEvents...)
	}
	return events
}
