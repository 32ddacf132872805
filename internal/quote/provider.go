// Package quote fetches random motivational quotes from an HTTP service.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quotecast/quotecast/internal/model"
)

// DefaultURL is the public ZenQuotes random endpoint.
const DefaultURL = "https://zenquotes.io/api/random"

// maxBodySize caps how much of the response is read.
const maxBodySize = 64 << 10

// FetchError is returned for any failure to obtain a quote.
type FetchError struct {
	// StatusCode is the upstream HTTP status, or 0 if no response arrived.
	StatusCode int
	Reason     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := "quote fetch failed: " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Source yields one quote per call.
type Source interface {
	Random(ctx context.Context) (*model.Quote, error)
}

// Provider fetches quotes with one GET per call. No caching, no retries.
type Provider struct {
	client *http.Client
	url    string
}

// NewProvider creates a Provider. An empty url uses DefaultURL.
func NewProvider(client *http.Client, url string) *Provider {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if url == "" {
		url = DefaultURL
	}
	return &Provider{client: client, url: url}
}

// zenQuote is one element of the upstream response array.
type zenQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Random fetches one quote. Errors are always *FetchError.
func (p *Provider) Random(ctx context.Context) (*model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, &FetchError{Reason: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{Reason: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &FetchError{StatusCode: resp.StatusCode, Reason: "unexpected status"}
	}

	var quotes []zenQuote
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&quotes); err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Reason: "malformed body", Err: err}
	}
	if len(quotes) == 0 {
		return nil, &FetchError{StatusCode: resp.StatusCode, Reason: "empty quote list"}
	}

	first := quotes[0]
	text := strings.TrimSpace(first.Q)
	if text == "" {
		return nil, &FetchError{StatusCode: resp.StatusCode, Reason: "empty quote text"}
	}

	author := strings.TrimSpace(first.A)
	if author == "" {
		author = "Unknown"
	}

	return &model.Quote{Text: text, Author: author}, nil
}
