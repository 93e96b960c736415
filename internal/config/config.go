package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的配置。
type ServerConfig struct {
	Port         int               `yaml:"port"`         // HTTP 监听端口
	AllowOrigins []string          `yaml:"allowOrigins"` // CORS 允许的来源列表
	RateLimiter  RateLimiterConfig `yaml:"rateLimiter"`  // 限流器配置
}

// RateLimiterConfig 定义了令牌桶限流器的配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// ProviderConfig 包含单个模型提供商的配置。
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务基础 URL (可选，某些提供商不需要)
}

// LLMConfig 包含了不同 LLM 提供商的配置。
type LLMConfig struct {
	Provider string         `yaml:"provider"` // LLM 提供商 (例如: "openai", "gemini", "ollama")
	OpenAI   ProviderConfig `yaml:"openai"`
	Gemini   ProviderConfig `yaml:"gemini"`
	Ollama   ProviderConfig `yaml:"ollama"`
}

// EmbeddingConfig 包含了不同 Embedding 提供商的配置。
type EmbeddingConfig struct {
	Provider string         `yaml:"provider"` // Embedding 提供商 (例如: "openai", "gemini", "ollama")
	OpenAI   ProviderConfig `yaml:"openai"`
	Gemini   ProviderConfig `yaml:"gemini"`
	Ollama   ProviderConfig `yaml:"ollama"`
}

// SearchConfig 定义了外部搜索服务 (网页搜索 + 百科) 的配置。
type SearchConfig struct {
	SerpAPIKey       string `yaml:"serpApiKey"`       // SerpAPI 密钥
	WikipediaBaseURL string `yaml:"wikipediaBaseURL"` // Wikipedia API 地址 (留空使用官方地址)
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MilvusConfig 定义了 Milvus 数据库的连接配置。
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus 服务地址
	Collection string `yaml:"collection"` // 存放学习资料向量的集合名称
	TopK       int    `yaml:"topK"`       // 检索返回的文档数量
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 数据库配置
}

// CacheConfig 定义了语义缓存的配置。
type CacheConfig struct {
	Backend             string  `yaml:"backend"`             // 持久化后端: "file" 或 "redis"
	FilePath            string  `yaml:"filePath"`            // JSON 缓存文件路径 (backend=file)
	RedisKey            string  `yaml:"redisKey"`            // 缓存快照的 Redis 键名 (backend=redis)
	SimilarityThreshold float64 `yaml:"similarityThreshold"` // 相似度阈值，默认 0.85
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Server    ServerConfig    `yaml:"server"`    // HTTP 服务配置
	LLM       LLMConfig       `yaml:"llm"`       // LLM 配置部分
	Embedding EmbeddingConfig `yaml:"embedding"` // Embedding 配置部分
	Search    SearchConfig    `yaml:"search"`    // 外部搜索配置
	Databases DatabaseConfigs `yaml:"databases"` // 数据库配置
	Cache     CacheConfig     `yaml:"cache"`     // 语义缓存配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 环境变量 (PORT, OPENAI_API_KEY, GEMINI_API_KEY, SERPAPI_API_KEY, MONGODB_URI)
// 会覆盖文件中的对应字段，便于在部署平台上注入机密信息。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	// 将 YAML 内容解析到 cfg 结构体中。
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnvOverrides 用环境变量覆盖配置文件中的机密字段。
func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
		c.Embedding.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
		c.Embedding.Gemini.APIKey = v
	}
	if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
		c.Search.SerpAPIKey = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Databases.MongoDB.Address = v
	}
}

// applyDefaults 为省略的字段填入默认值。
func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.FilePath == "" {
		c.Cache.FilePath = "cache/cache.json"
	}
	if c.Cache.RedisKey == "" {
		c.Cache.RedisKey = "chatbot:semantic_cache"
	}
	if c.Cache.SimilarityThreshold == 0 {
		c.Cache.SimilarityThreshold = 0.85
	}
	if c.Databases.Milvus.TopK == 0 {
		c.Databases.Milvus.TopK = 5
	}
}

// MissingCredentials 返回缺失的机密配置列表。
// 按照部署约定，缺失的密钥只记录错误而不阻止启动，首次使用时才会失败。
func (c *AppConfig) MissingCredentials() []string {
	var missing []string
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "gemini":
		if c.LLM.Gemini.APIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	}
	if c.Search.SerpAPIKey == "" {
		missing = append(missing, "SERPAPI_API_KEY")
	}
	if c.Databases.MongoDB.Address == "" {
		missing = append(missing, "MONGODB_URI")
	}
	return missing
}
