// Package scraper collects movie titles and links from the IMDB top picks
// page.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"dashboard/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL = "https://www.imdb.com/what-to-watch/top-picks/"

	pickSelector = "a.ipc-poster-card__title"
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64) dashboard-scraper"
)

var tracer = otel.Tracer("dashboard/internal/scraper")

type Client struct {
	http *resty.Client
	// base resolves relative links; nil means the page URL itself.
	base *url.URL
}

// New creates a client. An empty baseURL resolves links against the
// scraped page.
func New(timeout time.Duration, baseURL string) (*Client, error) {
	c := &Client{http: resty.New().SetTimeout(timeout).SetHeader("User-Agent", userAgent)}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("base url: %w", err)
		}
		c.base = u
	}
	return c, nil
}

var defaultClient = &Client{http: resty.New().SetTimeout(30*time.Second).SetHeader("User-Agent", userAgent)}

// FetchTopPicks scrapes pageURL with a default client.
func FetchTopPicks(ctx context.Context, pageURL string) ([]models.Pick, error) {
	return defaultClient.TopPicks(ctx, pageURL)
}

// TopPicks fetches pageURL and returns every poster card title with its
// absolute link, in page order.
func (c *Client) TopPicks(ctx context.Context, pageURL string) ([]models.Pick, error) {
	ctx, span := tracer.Start(ctx, "TopPicks")
	defer span.End()
	span.SetAttributes(attribute.String("page_url", pageURL))

	picks, err := c.topPicks(ctx, pageURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("picks", len(picks)))
	return picks, nil
}

func (c *Client) topPicks(ctx context.Context, pageURL string) ([]models.Pick, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("page url: %w", err)
	}
	base := c.base
	if base == nil {
		base = page
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var picks []models.Pick
	doc.Find(pickSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link, err := base.Parse(href)
		if err != nil {
			slog.WarnContext(ctx, "skipping pick with bad link", "href", href, "err", err)
			return
		}
		picks = append(picks, models.Pick{
			Title: strings.TrimSpace(s.Text()),
			Link:  link.String(),
		})
	})
	slog.DebugContext(ctx, "scraped top picks", "url", pageURL, "picks", len(picks))
	return picks, nil
}
