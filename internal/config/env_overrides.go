package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func applyEnvOverrides(cfg *Config) {
	applyCoreEnvOverrides(cfg)
	applyServerEnvOverrides(cfg)
	applyUpstreamEnvOverrides(cfg)
	applyAuthEnvOverrides(cfg)
	applyCreditsEnvOverrides(cfg)
	applySMTPEnvOverrides(cfg)
}

func applyCoreEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOVI_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("NOVI_DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("NOVI_DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("NOVI_DB_SQLITE_PATH"); v != "" {
		cfg.DB.SQLitePath = v
	}
}

func applyServerEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOVI_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		// 兼容 PaaS 常见的 PORT 注入。
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("NOVI_SERVER_READ_HEADER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadHeaderTimeout = d
		}
	}
	if v := os.Getenv("NOVI_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("NOVI_SERVER_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if v := os.Getenv("NOVI_SERVER_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("NOVI_SERVER_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("NOVI_FRONTEND_DIST_DIR"); v != "" {
		cfg.Server.FrontendDistDir = v
	}
	if v := os.Getenv("NOVI_CORS_ALLOW_ALL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.CORSAllowAll = b
		}
	}
}

func applyUpstreamEnvOverrides(cfg *Config) {
	// FAL_KEY 是官方客户端的约定变量名，FAL_API_KEY 为历史兼容。
	if v := os.Getenv("FAL_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	} else if v := os.Getenv("FAL_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := os.Getenv("NOVI_UPSTREAM_SYNC_BASE_URL"); v != "" {
		cfg.Upstream.SyncBaseURL = v
	}
	if v := os.Getenv("NOVI_UPSTREAM_QUEUE_BASE_URL"); v != "" {
		cfg.Upstream.QueueBaseURL = v
	}
	if v := os.Getenv("NOVI_UPSTREAM_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.PollInterval = d
		}
	}
	if v := os.Getenv("NOVI_UPSTREAM_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.RequestTimeout = d
		}
	}
}

func applyAuthEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOVI_AUTH_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	} else if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
	if v := os.Getenv("NOVI_AUTH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
}

func applyCreditsEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOVI_CREDITS_INITIAL_BALANCE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Credits.InitialBalance = n
		}
	}
	if v := os.Getenv("NOVI_CREDITS_DEFAULT_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Credits.DefaultCost = n
		}
	}
	// 形如 "Text Generation=10,Image Creation=50"；整项替换而非合并。
	if v := os.Getenv("NOVI_CREDITS_COSTS"); v != "" {
		if costs := parseCostsCSV(v); len(costs) > 0 {
			cfg.Credits.Costs = costs
		}
	}
}

func applySMTPEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOVI_SMTP_SERVER"); v != "" {
		cfg.SMTP.SMTPServer = v
	}
	if v := os.Getenv("NOVI_SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.SMTPPort = n
		}
	}
	if v := os.Getenv("NOVI_SMTP_SSL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SMTP.SMTPSSLEnabled = b
		}
	}
	if v := os.Getenv("NOVI_SMTP_ACCOUNT"); v != "" {
		cfg.SMTP.SMTPAccount = v
	}
	if v := os.Getenv("NOVI_SMTP_TOKEN"); v != "" {
		cfg.SMTP.SMTPToken = v
	}
	if v := os.Getenv("NOVI_SMTP_FROM"); v != "" {
		cfg.SMTP.SMTPFrom = v
	}
}

func parseCostsCSV(raw string) map[string]int64 {
	out := make(map[string]int64)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || key == "" || n <= 0 {
			continue
		}
		out[key] = n
	}
	return out
}
