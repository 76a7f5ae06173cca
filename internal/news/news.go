// Package news fetches recent market headlines from RSS feeds and picks the
// ones that mention an instrument. Headlines only enrich analysis prompts;
// a failed feed is skipped.
package news

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/internal/infra"
	"github.com/seenimoa/quotechat/pkg/models"
)

// Article is one feed item.
type Article struct {
	Title       string
	URL         string
	Source      string
	Summary     string
	PublishedAt time.Time
}

// Feed fetches and filters headlines from a fixed set of RSS/Atom URLs.
type Feed struct {
	urls    []string
	limit   int
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// New builds a Feed from the news configuration section.
func New(cfg config.NewsConfig, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 3
	}
	return &Feed{
		urls:    cfg.Feeds,
		limit:   limit,
		timeout: timeout,
		client:  infra.NewHTTPClient(timeout),
		logger:  logger,
	}
}

// Headlines returns up to the configured number of titles, newest first,
// that mention the instrument's base code or name.
func (f *Feed) Headlines(ctx context.Context, inst models.Instrument) []string {
	articles := f.Fetch(ctx)
	keywords := instrumentKeywords(inst)

	var titles []string
	for _, a := range articles {
		if !matchesAny(a.Title+" "+a.Summary, keywords) {
			continue
		}
		titles = append(titles, a.Title)
		if len(titles) == f.limit {
			break
		}
	}
	return titles
}

// Fetch reads every feed concurrently within the configured timeout and
// returns the merged articles, newest first.
func (f *Feed) Fetch(ctx context.Context) []Article {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		all []Article
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, url := range f.urls {
		g.Go(func() error {
			articles, err := f.fetchRSS(gctx, url)
			if err != nil {
				f.logger.Debug("news feed skipped", zap.String("feed", url), zap.Error(err))
				return nil
			}
			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return all
}

func (f *Feed) fetchRSS(ctx context.Context, url string) ([]Article, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = infra.UserAgent

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  feed.Title,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		if a.Title != "" {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// instrumentKeywords returns lowercase search terms for the base leg, e.g.
// BTC/USDT → ["btc", "bitcoin"].
func instrumentKeywords(inst models.Instrument) []string {
	keywords := []string{strings.ToLower(inst.Base)}
	if name := strings.ToLower(inst.DisplayName()); name != "" && name != keywords[0] {
		keywords = append(keywords, name)
	}
	return keywords
}

// matchesAny reports whether text contains any keyword as a whole word.
func matchesAny(text string, keywords []string) bool {
	joined := wordString(text)
	for _, kw := range keywords {
		if strings.Contains(joined, " "+kw+" ") {
			return true
		}
	}
	return false
}

// wordString lowercases text and reduces it to space-separated words with
// a leading and trailing space, so " kw " finds whole words only.
func wordString(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	return " " + strings.Join(words, " ") + " "
}
