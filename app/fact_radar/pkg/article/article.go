package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 5 << 20
	// MinContentLength 正文少于该长度视为抽取失败
	MinContentLength = 100
	userAgent        = "Mozilla/5.0 (compatible; fact_radar/1.0)"
)

// ErrTooShort 抽取到的正文过短
var ErrTooShort = errors.New("article: extracted content too short")

// titleSuffixes 常见站点标题后缀
var titleSuffixes = []string{
	" | Philippine News Agency", " | Reuters", " | CNN", " | BBC",
	" - Philippine Daily Inquirer", " - Manila Bulletin", " | ABS-CBN News",
	" | Rappler", " | Philstar.com", " | GMA News Online", " - The Manila Times",
}

// Article 抽取结果
type Article struct {
	URL     string
	Title   string
	Content string
	Site    string
}

// Fetcher 文章抓取与正文抽取
type Fetcher struct {
	client *http.Client
}

// NewFetcher client 为 nil 时使用默认超时的 http.Client
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{client: client}
}

// Fetch 下载页面并抽取标题与正文
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid article url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	metaTitle := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		metaTitle = MetaTitle(doc)
	} else {
		logger.Log.Warnf("解析页面元信息失败: %v", err)
	}

	parsed, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	content := strings.TrimSpace(parsed.TextContent)
	if utf8.RuneCountInString(content) < MinContentLength {
		return nil, ErrTooShort
	}

	title := metaTitle
	if title == "" {
		title = parsed.Title
	}

	return &Article{
		URL:     rawURL,
		Title:   StripSiteSuffix(title),
		Content: content,
		Site:    parsed.SiteName,
	}, nil
}

// MetaTitle 依次取 og:title、twitter:title、<title>
func MetaTitle(doc *goquery.Document) string {
	for _, sel := range []string{`meta[property="og:title"]`, `meta[name="twitter:title"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// StripSiteSuffix 去掉标题尾部的站点名
func StripSiteSuffix(title string) string {
	title = strings.TrimSpace(title)
	for _, s := range titleSuffixes {
		if strings.HasSuffix(title, s) {
			return strings.TrimSpace(strings.TrimSuffix(title, s))
		}
	}
	return title
}
