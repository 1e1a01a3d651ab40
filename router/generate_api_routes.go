package router

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"noviai/internal/auth"
	"noviai/internal/catalog"
	"noviai/internal/credit"
	"noviai/internal/pipeline"
)

func setGenerateAPIRoutes(r gin.IRoutes, opts Options) {
	r.POST("/generate", requireToken(opts), generateHandler(opts))
}

type generateRequest struct {
	Category         string         `json:"category"`
	Model            string         `json:"model"`
	Prompt           string         `json:"prompt"`
	AdditionalParams map[string]any `json:"additionalParams"`
}

func generateHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "请求体不是合法 JSON")
			return
		}
		if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Model) == "" || strings.TrimSpace(req.Prompt) == "" {
			respondError(c, http.StatusBadRequest, "缺少必填字段：category、model、prompt")
			return
		}

		p, ok := auth.PrincipalFromContext(c.Request.Context())
		if !ok || strings.TrimSpace(p.UserID) == "" {
			respondError(c, http.StatusUnauthorized, "请先登录（缺少访问令牌）")
			return
		}

		ctx := c.Request.Context()
		if opts.GenerateTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.GenerateTimeout)
			defer cancel()
		}

		resp, err := opts.Pipeline.Run(ctx, p.UserID, pipeline.Request{
			Category: req.Category,
			Model:    req.Model,
			Prompt:   req.Prompt,
			Params:   req.AdditionalParams,
		})
		if err != nil {
			var ice *credit.InsufficientCreditsError
			var ge *pipeline.GenerationError
			switch {
			case errors.As(err, &ice):
				c.JSON(http.StatusPaymentRequired, gin.H{
					"success":   false,
					"error":     ice.Error(),
					"required":  ice.Required,
					"available": ice.Available,
				})
			case errors.Is(err, catalog.ErrModelNotFound):
				respondError(c, http.StatusNotFound, fmt.Sprintf("模型不存在：%s / %s", req.Category, req.Model))
			case errors.Is(err, sql.ErrNoRows):
				respondError(c, http.StatusNotFound, "账号不存在")
			case errors.As(err, &ge):
				respondError(c, http.StatusInternalServerError, ge.Message)
			default:
				slog.Error("生成请求处理失败", "user_id", p.UserID, "category", req.Category, "err", err)
				respondError(c, http.StatusInternalServerError, "生成失败，请稍后重试")
			}
			return
		}

		cost, _ := resp.CostUSD.Float64()
		out := gin.H{
			"success":          true,
			"data":             resp.Data,
			"cost":             cost,
			"requestId":        resp.RequestID,
			"model":            resp.Model,
			"category":         resp.Category,
			"creditsUsed":      resp.CreditsUsed,
			"remainingCredits": resp.RemainingCredits,
		}
		if resp.CreditWarning != "" {
			out["creditWarning"] = resp.CreditWarning
		}
		c.JSON(http.StatusOK, out)
	}
}
