package ramp

import (
	"context"
	"fmt"
	"net/url"
)

// Pager walks a cursor-linked listing one page at a time. Each page URL
// comes from the previous response, so pages are fetched strictly in order.
type Pager struct {
	client  *Client
	base    *url.URL
	nextURL string
	visited int
}

// NewPager starts at startURL.
func NewPager(client *Client, startURL string) (*Pager, error) {
	base, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parse start url %q: %w", startURL, err)
	}
	return &Pager{client: client, base: base, nextURL: startURL}, nil
}

// Next fetches the next page. It returns nil, nil once a page without a
// next pointer has been consumed.
func (p *Pager) Next(ctx context.Context) (*Page, error) {
	if p.nextURL == "" {
		return nil, nil
	}

	page, err := p.client.GetPage(ctx, p.nextURL)
	if err != nil {
		p.nextURL = ""
		return nil, err
	}
	p.visited++

	p.nextURL = ""
	if page.Next != "" {
		next, err := p.base.Parse(page.Next)
		if err != nil {
			return page, fmt.Errorf("parse next url %q: %w", page.Next, err)
		}
		p.nextURL = next.String()
	}
	return page, nil
}

// Visited is the number of pages fetched successfully.
func (p *Pager) Visited() int {
	return p.visited
}
