package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Storage  StorageConfig  `mapstructure:"storage"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Search   SearchConfig   `mapstructure:"search"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Mode           string `mapstructure:"mode"`
	DefaultUserRef string `mapstructure:"default_user_ref"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

type QueueConfig struct {
	Enabled       bool          `mapstructure:"enabled"` // false 时在请求内同步执行
	AnalysisQueue string        `mapstructure:"analysis_queue"`
	MaxWorkers    int           `mapstructure:"max_workers"`
	RegistryTTL   time.Duration `mapstructure:"registry_ttl"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"` // local 或 oss
	Dir     string `mapstructure:"dir"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`           // 最大文件大小（字节）
	ExpireHours       int      `mapstructure:"expire_hours"`       // 残留文件过期时间（小时）
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
	DefaultQuery      string   `mapstructure:"default_query"`      // query 为空时使用
}

type PipelineConfig struct {
	Provider          string        `mapstructure:"provider"` // anthropic 或 gemini
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"` // 单次模型调用超时
	MaxTokens         int           `mapstructure:"max_tokens"`
	Temperature       float64       `mapstructure:"temperature"`
	DocumentCharLimit int           `mapstructure:"document_char_limit"`
}

type SearchConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

const DefaultQuery = "Provide comprehensive financial analysis with investment recommendations"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.default_user_ref", "1")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "findoc")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("oss.endpoint", "")
	v.SetDefault("oss.access_key_id", "")
	v.SetDefault("oss.access_key_secret", "")
	v.SetDefault("oss.bucket_name", "")

	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.analysis_queue", "financial_analysis")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("queue.registry_ttl", 24*time.Hour)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.dir", "data")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})

	v.SetDefault("upload.max_size", 50*1024*1024)
	v.SetDefault("upload.expire_hours", 24)
	v.SetDefault("upload.allowed_extensions", []string{".pdf"})
	v.SetDefault("upload.default_query", DefaultQuery)

	v.SetDefault("pipeline.provider", "anthropic")
	v.SetDefault("pipeline.model", "")
	v.SetDefault("pipeline.api_key", "")
	v.SetDefault("pipeline.timeout", 120*time.Second)
	v.SetDefault("pipeline.max_tokens", 3500)
	v.SetDefault("pipeline.temperature", 0.2)
	v.SetDefault("pipeline.document_char_limit", 60000)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.api_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
}

func Load(configPath string) (*Config, error) {
	// .env 只补充环境变量，不覆盖已有的
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	if configPath != "" {
		localConfigPath := filepath.Join(filepath.Dir(configPath), "config.local.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			configPath = localConfigPath
		}

		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Upload.DefaultQuery) == "" {
		cfg.Upload.DefaultQuery = DefaultQuery
	}

	return &cfg, nil
}
