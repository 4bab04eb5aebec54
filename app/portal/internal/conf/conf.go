package conf

type Bootstrap struct {
	Server    *Server
	FactRadar *FactRadar `json:"fact_radar"`
}

type Server struct {
	Http *HTTP
}

type HTTP struct {
	Addr    string
	Timeout string
}

type FactRadar struct {
	Llm         *LLM         `json:"llm"`
	Search      *Search      `json:"search"`
	Classifier  *Classifier  `json:"classifier"`
	Analysis    *Analysis    `json:"analysis"`
	Log         *Log         `json:"log"`
	Concurrency *Concurrency `json:"concurrency"`
	Db          *DB          `json:"db"`
	Redis       *Redis       `json:"redis"`
	Sweep       *Sweep       `json:"sweep"`
}

type LLM struct {
	BaseUrl          string   `json:"base_url"`
	Model            string   `json:"model"`
	ApiKeys          []string `json:"api_keys"`
	SimilarityApiKey string   `json:"similarity_api_key"`
	Timeout          int32    `json:"timeout"`
}

type Search struct {
	Provider string   `json:"provider"`
	Google   *Google  `json:"google"`
	Tavily   *Tavily  `json:"tavily"`
	Searxng  *SearXNG `json:"searxng"`
	Timeout  int32    `json:"timeout"`
	Workers  int32    `json:"workers"`
}

type Google struct {
	ApiKeys []string `json:"api_keys"`
	Cx      string   `json:"cx"`
}

type Tavily struct {
	ApiKeys []string `json:"api_keys"`
}

type SearXNG struct {
	BaseUrl string `json:"base_url"`
	Timeout int32  `json:"timeout"`
}

type Classifier struct {
	ModelPath string `json:"model_path"`
}

type Analysis struct {
	RequirePolitical bool `json:"require_political"`
	ReuseExisting    bool `json:"reuse_existing"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type DB struct {
	Driver   string `json:"driver"`
	Dsn      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int32  `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type Redis struct {
	Url    string `json:"url"`
	Prefix string `json:"prefix"`
	Ttl    int32  `json:"ttl"`
}

// Sweep 内存取消标记的定期清理
type Sweep struct {
	Spec   string `json:"spec"`
	MaxAge string `json:"max_age"`
}
