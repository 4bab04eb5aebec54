package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultLLMBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLLMModel       = "gemini-2.0-flash"
	DefaultLLMTimeout     = 60
	DefaultSearchTimeout  = 10
	DefaultRedisPrefix    = "fact_radar:cancelled:"
	DefaultRedisTTL       = 3600
	maxEnvKeys            = 5
	defaultSearchProvider = "google"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      SearchConfig      `yaml:"search"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Analysis    AnalysisConfig    `yaml:"analysis"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Redis       RedisConfig       `yaml:"redis"`
}

// LLMConfig 生成式模型配置，多个 key 轮换使用
type LLMConfig struct {
	BaseURL          string   `yaml:"base_url"`
	Model            string   `yaml:"model"`
	APIKeys          []string `yaml:"api_keys"`
	SimilarityAPIKey string   `yaml:"similarity_api_key"`
	Timeout          int      `yaml:"timeout"` // 秒
}

// SearchConfig 搜索相关配置
type SearchConfig struct {
	Provider string        `yaml:"provider"` // google | tavily | searxng
	Google   GoogleConfig  `yaml:"google"`
	Tavily   TavilyConfig  `yaml:"tavily"`
	SearXNG  SearXNGConfig `yaml:"searxng"`
	Timeout  int           `yaml:"timeout"` // 秒
	Workers  int           `yaml:"workers"` // 并行查询的分块数，<=1 表示串行
}

// GoogleConfig Google Custom Search 配置
type GoogleConfig struct {
	APIKeys []string `yaml:"api_keys"`
	CX      string   `yaml:"cx"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// ClassifierConfig 文本分类模型配置
type ClassifierConfig struct {
	ModelPath string `yaml:"model_path"`
}

// AnalysisConfig 分析流程开关
type AnalysisConfig struct {
	RequirePolitical bool `yaml:"require_political"`
	ReuseExisting    bool `yaml:"reuse_existing"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，DSN 优先于分项配置
type DBConfig struct {
	Driver   string `yaml:"driver"` // postgres | sqlite
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// RedisConfig 取消标记存储配置
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
	TTL    int    `yaml:"ttl"` // 秒
}

// Enabled 是否配置了数据库
func (c DBConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

// DataSource 返回 database/sql 使用的连接串
func (c DBConfig) DataSource() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// LoadConfig 从指定路径加载配置，并叠加 .env 与环境变量
func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyEnv 用环境变量补充密钥等敏感配置
func (c *Config) ApplyEnv() {
	c.Search.Google.APIKeys = mergeKeys(c.Search.Google.APIKeys, envKeys("GOOGLE_CSE_API_KEY"))
	if v := os.Getenv("GOOGLE_CSE_ID"); v != "" {
		c.Search.Google.CX = v
	}
	c.Search.Tavily.APIKeys = mergeKeys(c.Search.Tavily.APIKeys, envKeys("TAVILY_API_KEY"))
	c.LLM.APIKeys = mergeKeys(c.LLM.APIKeys, envKeys("GEMINI_API_KEY"))
	if v := os.Getenv("GEMINI_WEB_SEARCH"); v != "" {
		c.LLM.SimilarityAPIKey = v
	}
	if v := os.Getenv("FACT_RADAR_DB_DSN"); v != "" {
		c.DB.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
}

// ApplyDefaults 填充未配置项的默认值
func (c *Config) ApplyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = DefaultLLMTimeout
	}
	if c.Search.Provider == "" && len(c.Search.Google.APIKeys) > 0 {
		c.Search.Provider = defaultSearchProvider
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = DefaultSearchTimeout
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 1
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "postgres"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = DefaultRedisPrefix
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = DefaultRedisTTL
	}
}

// envKeys 读取 NAME, NAME_2 ... NAME_5，同时兼容 NAME2 ... NAME5
func envKeys(name string) []string {
	var keys []string
	add := func(env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			keys = append(keys, v)
		}
	}
	add(name)
	for i := 2; i <= maxEnvKeys; i++ {
		add(fmt.Sprintf("%s_%d", name, i))
		add(fmt.Sprintf("%s%d", name, i))
	}
	return keys
}

// mergeKeys 合并去重，保持先后顺序
func mergeKeys(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, k := range list {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
