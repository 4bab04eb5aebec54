package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited 上游返回 429，调用方应换下一个 key 重试
	ErrRateLimited = errors.New("search: rate limited")
	// ErrUnauthorized key 无效或无权限
	ErrUnauthorized = errors.New("search: unauthorized")
)

// Searcher 定义通用的搜索接口
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request 通用搜索请求
type Request struct {
	Query      string
	Topic      string // "news" or "general"
	MaxResults int
}

// Response 通用搜索响应
type Response struct {
	Results []Result
}

// Result 单条搜索结果
type Result struct {
	Title         string
	URL           string
	Content       string // 摘要
	Score         float64
	PublishedDate string
}

// StatusError 将非 200 响应转换为错误，429 与 401/403 可用 errors.Is 区分
func StatusError(provider string, status int, body []byte) error {
	if len(body) > 512 {
		body = body[:512]
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s api error (status %d): %w", provider, status, ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s api error (status %d): %s: %w", provider, status, string(body), ErrUnauthorized)
	default:
		return fmt.Errorf("%s api error (status %d): %s", provider, status, string(body))
	}
}
