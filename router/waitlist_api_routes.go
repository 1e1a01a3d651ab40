package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"noviai/internal/email"
	"noviai/internal/store"
)

func setWaitlistAPIRoutes(r gin.IRoutes, opts Options) {
	r.POST("/waitlist", joinWaitlistHandler(opts))
}

func joinWaitlistHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "请求体不是合法 JSON")
			return
		}

		addr := store.NormalizeEmail(req.Email)
		if addr == "" {
			respondError(c, http.StatusBadRequest, "邮箱不能为空")
			return
		}
		if !validEmail(addr) {
			respondError(c, http.StatusBadRequest, "邮箱格式不正确")
			return
		}

		entry, isNew, err := opts.Store.AddWaitlistEntry(c.Request.Context(), addr, req.Name, c.ClientIP())
		if err != nil {
			respondError(c, http.StatusInternalServerError, "登记候补名单失败，请稍后重试")
			return
		}

		// 确认邮件异步发送：SMTP 的快慢与成败都不影响登记结果。
		if isNew && opts.Mailer != nil && opts.MailerReady {
			go sendWaitlistConfirmation(opts, entry)
		}

		message := "已加入候补名单"
		if !isNew {
			message = "该邮箱已在候补名单中"
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "isNew": isNew})
	}
}

func sendWaitlistConfirmation(opts Options, entry store.WaitlistEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := email.SendWaitlistConfirmation(ctx, opts.Mailer, entry.Email, entry.Name); err != nil {
		slog.Error("发送候补名单确认邮件失败", "email", entry.Email, "err", err)
		return
	}
	if err := opts.Store.MarkWaitlistEmailSent(ctx, entry.Email, true); err != nil {
		slog.Error("标记候补名单发信状态失败", "email", entry.Email, "err", err)
	}
}
