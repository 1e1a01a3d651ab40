package upstream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"noviai/internal/catalog"
)

// Result 是生成网关的统一出参：所有失败路径都收敛为 OK=false + 可读错误，
// 不向调用方抛错，也不让调用方无限等待（上限由 ctx 超时兜底）。
type Result struct {
	OK        bool
	Data      json.RawMessage
	Error     string
	Cost      decimal.Decimal
	RequestID string
}

type caller interface {
	Run(ctx context.Context, modelID string, input []byte) ([]byte, string, error)
	Subscribe(ctx context.Context, modelID string, input []byte) ([]byte, string, error)
}

type Gateway struct {
	client caller
}

func NewGateway(client caller) *Gateway {
	return &Gateway{client: client}
}

// Generate 按 Descriptor 的协议类型分发请求并归一结果。
func (g *Gateway) Generate(ctx context.Context, d catalog.Descriptor, prompt string, params map[string]any) Result {
	// 成本按 prompt 长度近似 token 数估算（非精确分词），对 prompt 长度单调不减。
	cost := EstimateCost(d, prompt)

	input, err := buildFor(d, prompt, params)
	if err != nil {
		slog.Error("构造上游入参失败", "model", d.FalModelID, "err", err)
		return Result{Error: err.Error(), Cost: cost}
	}

	var payload []byte
	var requestID string
	switch d.Kind {
	case catalog.KindCompletionRouter:
		payload, requestID, err = g.client.Run(ctx, d.FalModelID, input)
	default:
		payload, requestID, err = g.client.Subscribe(ctx, d.FalModelID, input)
	}
	if err != nil {
		slog.Error("上游生成失败", "model", d.FalModelID, "request_id", requestID, "err", err)
		return Result{Error: ClassifyErrorMessage(err.Error()), Cost: cost, RequestID: requestID}
	}

	return Result{
		OK:        true,
		Data:      Normalize(d.Category, payload),
		Cost:      cost,
		RequestID: requestID,
	}
}

func buildFor(d catalog.Descriptor, prompt string, params map[string]any) ([]byte, error) {
	switch {
	case d.Kind == catalog.KindCompletionRouter:
		return BuildRouterInput(d, prompt, params)
	case d.FalModelID == speechModelID:
		return BuildSpeechInput(prompt, params)
	default:
		return BuildMediaInput(d.FalModelID, prompt, params)
	}
}

// EstimateCost 估算一次生成的美元成本：ceil(len(prompt)/4) * 每 token 单价。
func EstimateCost(d catalog.Descriptor, prompt string) decimal.Decimal {
	tokens := (len(prompt) + 3) / 4
	return decimal.NewFromInt(int64(tokens)).Mul(d.PricePerToken)
}
