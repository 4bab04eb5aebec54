package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/search"
)

const (
	defaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	// maxNum Custom Search 单次最多返回 10 条
	maxNum = 10
)

// Client Google Custom Search 客户端，一个 Client 对应一个 API key
type Client struct {
	apiKey  string
	cx      string
	baseURL string
	client  *http.Client
}

// Option 客户端可选项
type Option func(*Client)

// WithBaseURL 替换接口地址
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient 替换 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient 创建一个新的 Google CSE 客户端，timeout 单位秒
func NewClient(apiKey, cx string, timeout int, opts ...Option) *Client {
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 10 * time.Second
	}
	c := &Client{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: t},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure Client implements search.Searcher
var _ search.Searcher = (*Client)(nil)

// SearchResponse Custom Search 响应
type SearchResponse struct {
	Items []SearchItem `json:"items"`
}

// SearchItem 单条结果
type SearchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

// Search 执行搜索
func (c *Client) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	num := req.MaxResults
	if num <= 0 || num > maxNum {
		num = maxNum
	}

	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", c.cx)
	q.Set("q", req.Query)
	q.Set("num", strconv.Itoa(num))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, search.StatusError("google cse", res.StatusCode, body)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}

	results := make([]search.Result, 0, len(searchResp.Items))
	for _, it := range searchResp.Items {
		results = append(results, search.Result{
			Title:   it.Title,
			URL:     it.Link,
			Content: it.Snippet,
		})
	}
	return &search.Response{Results: results}, nil
}
