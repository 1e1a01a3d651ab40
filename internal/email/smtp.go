// Package email 提供邮件发送能力（当前仅实现 SMTP），供候补名单确认流程使用。
package email

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"noviai/internal/config"
)

type Mailer interface {
	SendHTML(ctx context.Context, subject string, to string, html string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Configured 报告 SMTP 是否已配置；未配置时调用方应跳过发信而不是报错。
func (m *SMTPMailer) Configured() bool {
	return strings.TrimSpace(m.cfg.SMTPServer) != "" &&
		strings.TrimSpace(m.cfg.SMTPAccount) != "" &&
		m.cfg.SMTPToken != ""
}

func (m *SMTPMailer) SendHTML(ctx context.Context, subject string, to string, html string) error {
	host := strings.TrimSpace(m.cfg.SMTPServer)
	if host == "" {
		return errors.New("SMTPServer 未配置")
	}
	port := m.cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	from, err := normalizeAddress(firstNonEmpty(m.cfg.SMTPFrom, m.cfg.SMTPAccount))
	if err != nil {
		return fmt.Errorf("SMTP 发件人不合法: %w", err)
	}
	toAddr, err := normalizeAddress(to)
	if err != nil {
		return fmt.Errorf("收件人邮箱不合法: %w", err)
	}

	account := strings.TrimSpace(m.cfg.SMTPAccount)
	token := m.cfg.SMTPToken
	if account == "" || token == "" {
		return errors.New("SMTPAccount/SMTPToken 未配置")
	}

	msg, err := buildHTMLMessage(from, toAddr, subject, html)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tlsCfg := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}
	deadline := deadlineFromContext(ctx, 30*time.Second)

	c, err := m.dial(ctx, addr, host, tlsCfg, deadline)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	return sendWithClient(c, host, account, token, from, toAddr, msg)
}

// dial 按端口/配置选择隐式 TLS（465）或 STARTTLS（587 等）；拒绝在明文连接上 AUTH。
func (m *SMTPMailer) dial(ctx context.Context, addr string, host string, tlsCfg *tls.Config, deadline time.Time) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	if m.cfg.SMTPPort == 465 || m.cfg.SMTPSSLEnabled {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("SMTP TLS 连接失败: %w", err)
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("设置 SMTP 超时失败: %w", err)
		}
		c, err := smtp.NewClient(conn, host)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("创建 SMTP client 失败: %w", err)
		}
		return c, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SMTP 连接失败: %w", err)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SMTP 超时失败: %w", err)
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("创建 SMTP client 失败: %w", err)
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		_ = c.Close()
		return nil, errors.New("SMTP 服务器不支持 STARTTLS（拒绝在明文连接上 AUTH）")
	}
	if err := c.StartTLS(tlsCfg); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("SMTP STARTTLS 失败: %w", err)
	}
	return c, nil
}

func sendWithClient(c *smtp.Client, host string, account string, token string, from string, to string, msg []byte) error {
	if err := c.Auth(smtp.PlainAuth("", account, token, host)); err != nil {
		return fmt.Errorf("SMTP 认证失败: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM 失败: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO 失败: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA 失败: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("写入 SMTP 内容失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("结束 SMTP DATA 失败: %w", err)
	}
	_ = c.Quit()
	return nil
}

func buildHTMLMessage(from string, to string, subject string, html string) ([]byte, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "Novi AI 邮件"
	}

	id, err := messageID(from)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nDate: %s\r\nMessage-ID: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		to, from, encodeRFC2047(subject), time.Now().Format(time.RFC1123Z), id)
	body := html
	if !strings.HasSuffix(body, "\r\n") {
		body += "\r\n"
	}
	return []byte(header + body), nil
}

func encodeRFC2047(s string) string {
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}

func messageID(from string) (string, error) {
	parts := strings.Split(from, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("发件人邮箱缺少域名，无法生成 Message-ID")
	}
	b := make([]byte, 12)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("生成随机数失败: %w", err)
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), base64.RawURLEncoding.EncodeToString(b), parts[1]), nil
}

func normalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("邮箱为空")
	}
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(a.Address), nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deadlineFromContext(ctx context.Context, fallback time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(fallback)
}
