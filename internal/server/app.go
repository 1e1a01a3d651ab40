// Package server 组装 HTTP 路由、依赖与中间件，使 main 保持简单可读。
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"noviai/internal/auth"
	"noviai/internal/catalog"
	"noviai/internal/config"
	"noviai/internal/credit"
	"noviai/internal/email"
	"noviai/internal/pipeline"
	"noviai/internal/store"
	"noviai/internal/upstream"
	"noviai/internal/version"
	"noviai/router"
)

type AppOptions struct {
	Config  config.Config
	DB      *sql.DB
	Dialect store.Dialect
	Version version.BuildInfo
}

type App struct {
	cfg     config.Config
	db      *sql.DB
	store   *store.Store
	version version.BuildInfo
	engine  *gin.Engine
}

func NewApp(opts AppOptions) (*App, error) {
	st := store.New(opts.DB)
	st.SetDialect(opts.Dialect)

	cat := catalog.New()
	policy := credit.NewPolicy(opts.Config.Credits, st)
	gateway := upstream.NewGateway(upstream.NewClient(opts.Config.Upstream))
	pipe := pipeline.New(policy, cat, gateway)

	tokens, err := auth.NewTokenIssuer(opts.Config.Auth.TokenSecret, opts.Config.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	mailer := email.NewSMTPMailer(opts.Config.SMTP)

	app := &App{
		cfg:     opts.Config,
		db:      opts.DB,
		store:   st,
		version: opts.Version,
	}

	if opts.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if opts.Config.Server.CORSAllowAll {
		engine.Use(corsAllowAll())
	}
	if opts.Config.Server.MaxBodyBytes > 0 {
		engine.Use(limitRequestBody(opts.Config.Server.MaxBodyBytes))
	}

	router.SetRouter(engine, router.Options{
		Store:    st,
		Catalog:  cat,
		Policy:   policy,
		Pipeline: pipe,
		Tokens:   tokens,

		Mailer:      mailer,
		MailerReady: mailer.Configured(),

		InitialCredits:  opts.Config.Credits.InitialBalance,
		GenerateTimeout: opts.Config.Server.RequestTimeout,

		Health: app.handleHealth,
	})

	if dist := opts.Config.Server.FrontendDistDir; dist != "" {
		engine.Use(static.Serve("/", static.LocalFile(dist, true)))
	}

	app.engine = engine
	return app, nil
}

func (a *App) Handler() http.Handler {
	return a.engine
}

// corsAllowAll 放开全部跨域来源（前端独立部署、无 cookie 凭据，放开是安全的）。
func corsAllowAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func limitRequestBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	type resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Env     string `json:"env"`
		Version string `json:"version"`
		DBOK    bool   `json:"db_ok"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbOK := a.db.PingContext(ctx) == nil

	out := resp{
		Status:  "ok",
		Message: "Server is running",
		Env:     a.cfg.Env,
		Version: a.version.Version,
		DBOK:    dbOK,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}
