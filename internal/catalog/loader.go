// Package catalog fetches the bestseller list and turns it into priced books.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Loader performs exactly one request per Load call. It neither retries nor
// remembers earlier results.
type Loader struct {
	endpoint string
	apiKey   string
	client   *http.Client
	prices   func() PriceSource
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option { return func(l *Loader) { l.client = c } }
func WithPrices(p PriceSource) Option      { return func(l *Loader) { l.prices = func() PriceSource { return p } } }

// WithSeed starts every load from a generator seeded with seed, so each load
// prices the same list identically. Zero keeps fresh random prices.
func WithSeed(seed uint64) Option {
	return func(l *Loader) {
		if seed == 0 {
			l.prices = RandomPrices
			return
		}
		l.prices = func() PriceSource { return NewSeededPrices(seed) }
	}
}

func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.client.Timeout = d
		}
	}
}

func NewLoader(endpoint, apiKey string, opts ...Option) *Loader {
	l := &Loader{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		prices: RandomPrices,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// wire shape of the NYT Books API list response; only what we read.
type listResponse struct {
	Results *struct {
		Books []rawBook `json:"books"`
	} `json:"results"`
}

type rawBook struct {
	ISBN13 *string `json:"primary_isbn13"`
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Image  *string `json:"book_image"`
}

// Load fetches the list and prices every book. Any failure is reported as
// ErrCatalogUnavailable with the cause attached.
func (l *Loader) Load(ctx context.Context) ([]Book, error) {
	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	books, err := l.normalize(raw)
	if err != nil {
		return nil, unavailable(err)
	}
	return books, nil
}

func (l *Loader) fetch(ctx context.Context) ([]rawBook, error) {
	u, err := url.Parse(l.endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api-key", l.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, api key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("GET %s: %w", l.endpoint, uerr.Err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("GET %s: unexpected status %d", l.endpoint, resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Results == nil {
		return nil, errors.New("response has no results")
	}
	return body.Results.Books, nil
}

func (l *Loader) normalize(raw []rawBook) ([]Book, error) {
	if len(raw) == 0 {
		return nil, errors.New("list has no books")
	}
	for i, r := range raw {
		switch {
		case empty(r.ISBN13):
			return nil, fmt.Errorf("book #%d: missing primary_isbn13", i)
		case empty(r.Title):
			return nil, fmt.Errorf("book %s: missing title", *r.ISBN13)
		case empty(r.Author):
			return nil, fmt.Errorf("book %s: missing author", *r.ISBN13)
		case r.Image == nil:
			return nil, fmt.Errorf("book %s: missing book_image", *r.ISBN13)
		}
	}

	prices := l.prices()
	out := make([]Book, 0, len(raw))
	for _, r := range raw {
		out = append(out, Book{
			ID:       *r.ISBN13,
			Title:    *r.Title,
			Author:   *r.Author,
			ImageURL: *r.Image,
		})
	}
	if _, err := NewSnapshot(out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Price = prices.PriceFor(out[i].ID)
	}
	return out, nil
}

func empty(s *string) bool { return s == nil || *s == "" }

func unavailable(err error) error { return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err) }
