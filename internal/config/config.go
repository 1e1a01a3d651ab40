// Package config 负责读取并合并服务配置（以环境变量为主），避免在业务代码里散落解析逻辑。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Env      string
	Server   ServerConfig
	DB       DBConfig
	Upstream UpstreamConfig
	Auth     AuthConfig
	Credits  CreditsConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	Addr string

	// HTTP 连接硬化：这些参数会直接映射到 net/http 的 http.Server。
	// 注意：WriteTimeout 必须不小于 RequestTimeout，否则长耗时的媒体生成会被截断。
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	IdleTimeout       time.Duration

	// RequestTimeout 是单个生成请求的上限（视频生成可能需要数分钟）。
	RequestTimeout time.Duration

	// MaxBodyBytes 限制请求体大小，避免超大 prompt 导致 OOM。<=0 表示不限制。
	MaxBodyBytes int64

	// FrontendDistDir 为营销页静态资源目录；为空时不挂载前端。
	FrontendDistDir string

	// CORSAllowAll 放开跨域（前后端分离部署时需要）。
	CORSAllowAll bool
}

type DBConfig struct {
	// Driver 支持 mysql/sqlite；为空时根据 dsn 自动推断。
	Driver string
	// DSN 仅用于 MySQL。
	DSN string
	// SQLitePath 是 SQLite 数据库文件路径（可包含 DSN query，如 ?_busy_timeout=30000）。
	SQLitePath string
}

type UpstreamConfig struct {
	// APIKey 即 FAL_KEY，同时用于同步与队列两类端点。
	APIKey string
	// SyncBaseURL 为同步推理端点（文本补全路由走这里）。
	SyncBaseURL string
	// QueueBaseURL 为异步任务端点（图片/视频/语音走这里）。
	QueueBaseURL string
	// PollInterval 为队列任务的轮询间隔。
	PollInterval time.Duration
	// RequestTimeout 为单次上游调用的整体上限。
	RequestTimeout time.Duration
}

type AuthConfig struct {
	// TokenSecret 用于会话令牌签名；为空时使用开发默认值（仅限本地）。
	TokenSecret string
	// TokenTTL 为会话令牌有效期，默认 7 天。
	TokenTTL time.Duration
}

type CreditsConfig struct {
	// InitialBalance 为新账号的初始积分。
	InitialBalance int64
	// Costs 为各生成类目的积分单价；未命中时回退 DefaultCost。
	Costs map[string]int64
	// DefaultCost 为未知类目的积分单价。
	DefaultCost int64
}

type SMTPConfig struct {
	SMTPServer     string
	SMTPPort       int
	SMTPSSLEnabled bool
	SMTPAccount    string
	SMTPToken      string
	SMTPFrom       string
}

func defaultConfig() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			Addr:              ":3001",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			IdleTimeout:       90 * time.Second,
			RequestTimeout:    10 * time.Minute,
			MaxBodyBytes:      1 << 20,
			CORSAllowAll:      true,
		},
		DB: DBConfig{},
		Upstream: UpstreamConfig{
			SyncBaseURL:    "https://fal.run",
			QueueBaseURL:   "https://queue.fal.run",
			PollInterval:   time.Second,
			RequestTimeout: 10 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Credits: CreditsConfig{
			InitialBalance: 5000,
			Costs: map[string]int64{
				"Text Generation": 10,
				"Image Creation":  50,
				"Video Creation":  50,
				"Voice Synthesis": 50,
			},
			DefaultCost: 50,
		},
	}
}

// LoadFromEnv 仅从环境变量加载配置（不读取任何配置文件）。
func LoadFromEnv() (Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(&cfg)
	return normalizeAndValidate(cfg)
}

func normalizeAndValidate(cfg Config) (Config, error) {
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, errors.New("server.addr 不能为空")
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.DB.DSN = strings.TrimSpace(cfg.DB.DSN)
	cfg.DB.SQLitePath = strings.TrimSpace(cfg.DB.SQLitePath)

	if cfg.DB.Driver == "" {
		if cfg.DB.DSN != "" {
			cfg.DB.Driver = "mysql"
		} else {
			cfg.DB.Driver = "sqlite"
		}
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if cfg.DB.SQLitePath == "" {
			cfg.DB.SQLitePath = "./data/noviai.db?_busy_timeout=30000"
		}
	case "mysql":
		if cfg.DB.DSN == "" {
			return Config{}, errors.New("db.dsn 不能为空（db.driver=mysql）")
		}
	default:
		return Config{}, fmt.Errorf("db.driver 不支持：%s（仅支持 mysql/sqlite）", cfg.DB.Driver)
	}

	var err error
	if cfg.Upstream.SyncBaseURL, err = normalizeBaseURL(cfg.Upstream.SyncBaseURL, "upstream.sync_base_url"); err != nil {
		return Config{}, err
	}
	if cfg.Upstream.QueueBaseURL, err = normalizeBaseURL(cfg.Upstream.QueueBaseURL, "upstream.queue_base_url"); err != nil {
		return Config{}, err
	}
	if cfg.Upstream.PollInterval <= 0 {
		cfg.Upstream.PollInterval = time.Second
	}
	if cfg.Upstream.RequestTimeout <= 0 {
		cfg.Upstream.RequestTimeout = 10 * time.Minute
	}

	if strings.TrimSpace(cfg.Auth.TokenSecret) == "" {
		// 与上线前必须替换的开发默认值；生产环境通过 NOVI_AUTH_TOKEN_SECRET 覆盖。
		cfg.Auth.TokenSecret = "dev-insecure-token-secret"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}

	if cfg.Credits.InitialBalance < 0 {
		return Config{}, errors.New("credits.initial_balance 不能为负数")
	}
	if cfg.Credits.DefaultCost <= 0 {
		return Config{}, errors.New("credits.default_cost 必须大于 0")
	}
	for category, cost := range cfg.Credits.Costs {
		if cost <= 0 {
			return Config{}, fmt.Errorf("credits.costs[%s] 必须大于 0", category)
		}
	}

	return cfg, nil
}

func normalizeBaseURL(raw string, label string) (string, error) {
	v := strings.TrimRight(strings.TrimSpace(raw), "/")
	if v == "" {
		return "", fmt.Errorf("%s 不能为空", label)
	}
	u, err := url.Parse(v)
	if err != nil {
		return "", fmt.Errorf("解析 %s 失败: %w", label, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 仅支持 http/https", label)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s host 不能为空", label)
	}
	return v, nil
}
