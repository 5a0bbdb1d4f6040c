package ramp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dvloznov/ramp-bills/internal/domain"
)

// DefaultBillsEndpoint is the first page of the bills listing.
const DefaultBillsEndpoint = "https://api.ramp.com/developer/v1/bills"

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 4096

// HTTPDoer can perform HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Page is one decoded listing response.
type Page struct {
	URL  string
	Data []domain.Record
	Next string
}

type pageBody struct {
	Data []domain.Record `json:"data"`
	Page struct {
		Next *string `json:"next"`
	} `json:"page"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client issues authenticated GETs against the Ramp developer API.
type Client struct {
	HTTP  HTTPDoer
	Token string
}

// NewClient returns a client with a default HTTP timeout.
func NewClient(token string) *Client {
	return &Client{
		HTTP:  &http.Client{Timeout: 60 * time.Second},
		Token: token,
	}
}

// GetPage fetches and decodes a single page.
func (c *Client) GetPage(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var body pageBody
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", url, err)
	}

	page := &Page{URL: url, Data: body.Data}
	if body.Page.Next != nil {
		page.Next = *body.Page.Next
	}
	return page, nil
}
