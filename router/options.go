package router

import (
	"net/http"
	"time"

	"noviai/internal/auth"
	"noviai/internal/catalog"
	"noviai/internal/credit"
	"noviai/internal/email"
	"noviai/internal/pipeline"
	"noviai/internal/store"
)

type Options struct {
	Store    *store.Store
	Catalog  *catalog.Catalog
	Policy   *credit.Policy
	Pipeline *pipeline.Pipeline
	Tokens   *auth.TokenIssuer

	// Mailer 可为 nil；MailerReady=false 时候补名单只落库、不发确认邮件。
	Mailer      email.Mailer
	MailerReady bool

	// InitialCredits 为首次登记账号的初始积分。
	InitialCredits int64

	// GenerateTimeout 为单次生成请求的上限（媒体任务可达数分钟）；<=0 表示不限制。
	GenerateTimeout time.Duration

	// system
	Health http.HandlerFunc
}
