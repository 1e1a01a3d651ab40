// Package upstream 封装对生成服务商的 HTTP 调用：同步补全端点与异步队列任务两种形态，
// 以及把异构返回体归一成统一响应契约的逻辑。
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"noviai/internal/config"
)

type Client struct {
	apiKey       string
	syncBaseURL  string
	queueBaseURL string
	pollInterval time.Duration
	timeout      time.Duration

	client *http.Client
}

func NewClient(cfg config.UpstreamConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		apiKey:       cfg.APIKey,
		syncBaseURL:  strings.TrimRight(cfg.SyncBaseURL, "/"),
		queueBaseURL: strings.TrimRight(cfg.QueueBaseURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.RequestTimeout,
		client: &http.Client{
			Transport: transport,
			// 单请求超时交给 ctx 控制；媒体任务可能要跑数分钟。
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Run 同步调用推理端点（文本补全路由）：单次 POST，直接拿到最终载荷。
func (c *Client) Run(ctx context.Context, modelID string, input []byte) ([]byte, string, error) {
	ctx, cancel := c.wrapTimeout(ctx)
	defer cancel()

	payload, resp, err := c.postJSON(ctx, c.syncBaseURL+"/"+modelID, input)
	if err != nil {
		return nil, "", err
	}
	return payload, requestIDFrom(resp, payload), nil
}

// Subscribe 提交异步队列任务并轮询直至终态：submit → status（带进度日志）→ result。
// 进度日志仅用于观测，任何解析失败都不影响最终结果。
func (c *Client) Subscribe(ctx context.Context, modelID string, input []byte) ([]byte, string, error) {
	ctx, cancel := c.wrapTimeout(ctx)
	defer cancel()

	submitted, resp, err := c.postJSON(ctx, c.queueBaseURL+"/"+modelID, input)
	if err != nil {
		return nil, "", err
	}
	requestID := requestIDFrom(resp, submitted)
	statusURL := gjson.GetBytes(submitted, "status_url").String()
	responseURL := gjson.GetBytes(submitted, "response_url").String()
	if statusURL == "" {
		statusURL = fmt.Sprintf("%s/%s/requests/%s/status", c.queueBaseURL, modelID, requestID)
	}
	if responseURL == "" {
		responseURL = fmt.Sprintf("%s/%s/requests/%s", c.queueBaseURL, modelID, requestID)
	}

	loggedLines := 0
	for {
		status, err := c.getJSON(ctx, statusURL+"?logs=1")
		if err != nil {
			return nil, requestID, err
		}
		loggedLines = logProgress(modelID, status, loggedLines)

		switch gjson.GetBytes(status, "status").String() {
		case "COMPLETED":
			payload, err := c.getJSON(ctx, responseURL)
			if err != nil {
				return nil, requestID, err
			}
			return payload, requestID, nil
		case "IN_QUEUE", "IN_PROGRESS", "":
			// 继续轮询。
		default:
			return nil, requestID, fmt.Errorf("上游任务进入异常状态：%s", gjson.GetBytes(status, "status").String())
		}

		select {
		case <-ctx.Done():
			return nil, requestID, fmt.Errorf("等待上游任务超时: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) wrapTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) postJSON(ctx context.Context, url string, body []byte) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("构造上游请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构造上游请求失败: %w", err)
	}
	c.authorize(req)
	payload, _, err := c.do(req)
	return payload, err
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Key "+c.apiKey)
	}
}

func (c *Client) do(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("上游调用失败: %w", err)
	}
	defer resp.Body.Close()

	// 限制读取大小，防止异常超大响应拖垮进程。
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, resp, fmt.Errorf("读取上游响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, fmt.Errorf("上游返回 %d: %s", resp.StatusCode, snippet(payload))
	}
	return payload, resp, nil
}

func requestIDFrom(resp *http.Response, payload []byte) string {
	if v := gjson.GetBytes(payload, "request_id").String(); v != "" {
		return v
	}
	if resp != nil {
		return resp.Header.Get("X-Fal-Request-Id")
	}
	return ""
}

// logProgress 把队列任务的新增日志行打到 debug 级别；返回累计已记录的行数。
func logProgress(modelID string, status []byte, logged int) int {
	logs := gjson.GetBytes(status, "logs").Array()
	for i := logged; i < len(logs); i++ {
		if msg := logs[i].Get("message").String(); msg != "" {
			slog.Debug("上游任务进度", "model", modelID, "message", msg)
		}
	}
	if len(logs) > logged {
		return len(logs)
	}
	return logged
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
