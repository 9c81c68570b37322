package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cv-agent-go/internal/logger"
)

// Config 应用程序配置
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 日志配置
	Logger logger.Config `yaml:"logger"`

	// Tika服务器配置（PDF解析兜底方案）
	Tika TikaConfig `yaml:"tika"`

	// Embedding配置（OpenAI兼容端点）
	Embedding EmbeddingConfig `yaml:"embedding"`

	// LLM配置（OpenAI兼容的对话补全）
	LLM LLMConfig `yaml:"llm"`

	// Gemini配置（google genai补全提供方）
	Gemini GeminiConfig `yaml:"gemini"`

	// Redis配置（分析结果缓存后端，可选）
	Redis RedisConfig `yaml:"redis"`

	// 分析流水线配置
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080"
}

// TikaConfig Tika服务器配置结构
type TikaConfig struct {
	ServerURL string `yaml:"server_url"`      // Tika服务器URL
	Timeout   int    `yaml:"timeout_seconds"` // 超时时间(秒)
}

// EmbeddingConfig Embedding配置 (OpenAI compatible)
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMConfig OpenAI兼容补全提供方配置
type LLMConfig struct {
	APIKey           string  `yaml:"api_key"`
	BaseURL          string  `yaml:"base_url"`
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	Timeout          string  `yaml:"timeout"` // 例如 "60s"
	QPM              int     `yaml:"qpm"`     // 每分钟请求数限制
	MaxRetries       int     `yaml:"max_retries"`
	RetryWaitSeconds int     `yaml:"retry_wait_seconds"`
}

// GeminiConfig Gemini补全提供方配置
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// 重试设置
	MaxRetries int `yaml:"max_retries"`
	// 分析结果缓存过期时间(小时)
	CacheExpireHours int `yaml:"cache_expire_hours"`
}

// AnalyzerConfig 分析流水线配置
type AnalyzerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // 分块目标大小(字符)
	ChunkOverlap int `yaml:"chunk_overlap"` // 相邻分块重叠(字符)
	BatchWorkers int `yaml:"batch_workers"` // 批量分析的工作协程数
	MemoryCache  int `yaml:"memory_cache"`  // 内存LRU缓存容量(条目数)
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".cv-agent", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 测试环境下找不到配置文件时返回默认配置
		if configPath == "" {
			if inTestEnv() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if inTestEnv() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖密钥（如果存在）
	if envKey := os.Getenv("EMBEDDING_API_KEY"); envKey != "" {
		config.Embedding.APIKey = envKey
	}
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envKey := os.Getenv("GEMINI_API_KEY"); envKey != "" {
		config.Gemini.APIKey = envKey
	}

	applyDefaults(&config)
	return &config, nil
}

// inTestEnv 检测是否运行在 go test 下
func inTestEnv() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// applyDefaults 填充缺省值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Tika.ServerURL == "" {
		config.Tika.ServerURL = "http://localhost:9998"
	}
	if config.Tika.Timeout == 0 {
		config.Tika.Timeout = 60
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-v3"
	}
	if config.Embedding.Dimensions == 0 {
		config.Embedding.Dimensions = 1024
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "qwen-turbo"
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	}
	if config.LLM.Timeout == "" {
		config.LLM.Timeout = "60s"
	}
	if config.LLM.QPM == 0 {
		config.LLM.QPM = 600
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = "gemini-2.0-flash"
	}
	if config.Redis.Address == "" {
		config.Redis.Address = "localhost:6379"
	}
	if config.Redis.PoolSize == 0 {
		config.Redis.PoolSize = 10
	}
	if config.Redis.DialTimeoutSeconds == 0 {
		config.Redis.DialTimeoutSeconds = 5
	}
	if config.Redis.ReadTimeoutSeconds == 0 {
		config.Redis.ReadTimeoutSeconds = 3
	}
	if config.Redis.WriteTimeoutSeconds == 0 {
		config.Redis.WriteTimeoutSeconds = 3
	}
	if config.Redis.CacheExpireHours == 0 {
		config.Redis.CacheExpireHours = 24
	}
	if config.Analyzer.ChunkSize == 0 {
		config.Analyzer.ChunkSize = 500
	}
	if config.Analyzer.ChunkOverlap == 0 {
		config.Analyzer.ChunkOverlap = 50
	}
	if config.Analyzer.BatchWorkers == 0 {
		config.Analyzer.BatchWorkers = 4
	}
	if config.Analyzer.MemoryCache == 0 {
		config.Analyzer.MemoryCache = 128
	}
}

// 创建一个默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)

	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"

	if envKey := os.Getenv("EMBEDDING_API_KEY"); envKey != "" {
		config.Embedding.APIKey = envKey
	} else {
		config.Embedding.APIKey = "test_api_key"
	}
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	} else {
		config.LLM.APIKey = "test_api_key"
	}

	return config
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
