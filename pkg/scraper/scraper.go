package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/pkg/logger"
)

type ScraperConfig struct {
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	UserAgent  string
	Selectors  []string
	OnProgress func(url string)
}

// DefaultSelectors locate the posting body on common job boards before falling back to <body>.
var DefaultSelectors = []string{
	"main",
	"article",
	".job-description",
	"#job-description",
	".posting",
	".content",
	"#content",
}

// Scraper fetches job postings one page at a time.
type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewWithConfig(config ScraperConfig, log *zap.Logger) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %v", config.RateLimit)
	}
	if config.UserAgent == "" {
		config.UserAgent = "coverletter/1.0"
	}
	if len(config.Selectors) == 0 {
		config.Selectors = DefaultSelectors
	}

	return &Scraper{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  logger.OrNop(log),
	}, nil
}

func New() *Scraper {
	s, _ := NewWithConfig(ScraperConfig{}, nil)
	return s
}

func validateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}
	return parsed, nil
}

// blockBreaks is the number of newlines kept around each block element.
var blockBreaks = map[string]int{
	"p": 2, "h1": 2, "h2": 2, "h3": 2, "h4": 2, "h5": 2, "h6": 2,
	"ul": 2, "ol": 2, "dl": 2, "table": 2, "section": 2, "article": 2, "header": 2, "blockquote": 2,
	"li": 1, "dt": 1, "dd": 1, "tr": 1, "div": 1, "br": 1,
}

// textBuilder renders a node tree as text, turning block elements into line
// breaks and collapsing all other whitespace to single spaces.
type textBuilder struct {
	buf []byte
}

func (b *textBuilder) text(s string) {
	s = collapseSpace(s)
	if s == "" {
		return
	}
	if len(b.buf) == 0 || b.buf[len(b.buf)-1] == '\n' {
		s = strings.TrimLeft(s, " ")
	}
	b.buf = append(b.buf, s...)
}

func (b *textBuilder) lineBreak(n int) {
	if n == 0 {
		return
	}
	b.buf = []byte(strings.TrimRight(string(b.buf), " "))
	if len(b.buf) == 0 {
		return
	}
	have := len(b.buf) - len(strings.TrimRight(string(b.buf), "\n"))
	for ; have < n; have++ {
		b.buf = append(b.buf, '\n')
	}
}

func (b *textBuilder) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		if name == "#text" {
			b.text(child.Text())
			return
		}
		breaks := blockBreaks[name]
		b.lineBreak(breaks)
		b.walk(child)
		b.lineBreak(breaks)
	})
}

func (b *textBuilder) String() string {
	return string(b.buf)
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(r) {
		out = " " + out
	}
	if r, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(r) {
		out += " "
	}
	return out
}

// cleanContent normalizes spacing within lines, strips boilerplate and keeps at
// most one blank line between paragraphs.
func cleanContent(content string) string {
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	var lines []string
	blank := false
	for _, line := range strings.Split(content, "\n") {
		for _, pattern := range noisePatterns {
			line = strings.ReplaceAll(line, pattern, "")
		}
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (s *Scraper) extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	var content string
	for _, selector := range s.config.Selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = renderText(selected.First())
			if content != "" {
				break
			}
		}
	}

	if content == "" {
		content = renderText(doc.Find("body"))
	}

	return content
}

func renderText(sel *goquery.Selection) string {
	var b textBuilder
	b.walk(sel)
	return cleanContent(b.String())
}

// Fetch downloads a job posting and returns its main text as a Document.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (models.Document, error) {
	parsed, err := validateURL(rawURL)
	if err != nil {
		return models.Document{}, err
	}
	urlStr := parsed.String()

	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return models.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return models.Document{}, err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Document{}, fmt.Errorf("fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Document{}, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.Document{}, fmt.Errorf("parse %s: %w", urlStr, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content := s.extractMainContent(doc)
	if content == "" {
		return models.Document{}, fmt.Errorf("no text content found at %s", urlStr)
	}

	s.logger.Debug("fetched job posting",
		zap.String("url", urlStr),
		zap.String("title", title),
		zap.Int("content_length", len(content)),
	)

	return models.Document{
		ID:      uuid.NewString(),
		URL:     urlStr,
		Title:   title,
		Content: content,
		Metadata: map[string]interface{}{
			"time":         time.Now(),
			"contentType":  resp.Header.Get("Content-Type"),
			"lastModified": resp.Header.Get("Last-Modified"),
		},
	}, nil
}
