package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	// ErrRateLimited 配额耗尽或限流，应换 key
	ErrRateLimited = errors.New("llm: rate limited")
	// ErrAuth key 无效，应换 key
	ErrAuth = errors.New("llm: authentication failed")
	// ErrNoKeys 未配置任何 key
	ErrNoKeys = errors.New("llm: no api keys configured")
	// ErrMalformed 返回内容不是合法 JSON
	ErrMalformed = errors.New("llm: malformed response")
)

// Generator 文本生成能力
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// chatModel eino ChatModel 中本包用到的部分
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatGenerator 基于单个 key 的 eino ChatModel
type ChatGenerator struct {
	cm      chatModel
	system  string
	timeout time.Duration
}

// NewChatGenerator 创建生成器，Gemini 通过 OpenAI 兼容接口接入
func NewChatGenerator(ctx context.Context, baseURL, apiKey, modelName string, timeout time.Duration) (*ChatGenerator, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return &ChatGenerator{cm: cm, timeout: timeout}, nil
}

// WithSystem 设置系统提示词
func (g *ChatGenerator) WithSystem(system string) *ChatGenerator {
	g.system = system
	return g
}

// Generate implements Generator
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	messages := make([]*schema.Message, 0, 2)
	if g.system != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: g.system})
	}
	messages = append(messages, &schema.Message{Role: schema.User, Content: prompt})

	resp, err := g.cm.Generate(ctx, messages)
	if err != nil {
		return "", Classify(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty response: %w", ErrMalformed)
	}
	return resp.Content, nil
}

var (
	rateLimitMarkers = []string{"rate limit", "quota", "429", "resource_exhausted", "too many requests"}
	authMarkers      = []string{"api_key", "api key", "authentication", "unauthenticated", "permission_denied", "401"}
)

// Classify 按错误信息区分限流、鉴权与其他错误
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuth) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}
	return err
}

// Rotatable 是否应换下一个 key 重试
func Rotatable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuth)
}
