// Package pipeline 把鉴权、积分策略与生成网关组合成端到端的生成流程：
// 校验 → 积分预检 → 模型解析 → 上游生成 → 成功后结算。
// 失败的生成绝不扣费；结算失败不丢弃已生成的结果，只附带软告警。
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"noviai/internal/catalog"
	"noviai/internal/credit"
	"noviai/internal/upstream"
)

// GenerationError 表示上游生成失败（已归类的可读信息）；此时不发生任何扣费。
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string { return e.Message }

type Request struct {
	Category string
	Model    string
	Prompt   string
	Params   map[string]any
}

type Response struct {
	Data      json.RawMessage
	CostUSD   decimal.Decimal
	RequestID string
	Model     string
	Category  string

	CreditsUsed      int64
	RemainingCredits int64
	// CreditWarning 非空表示生成成功但结算失败（与并发扣费竞争）；结果照常返回。
	CreditWarning string
}

type policy interface {
	Authorize(ctx context.Context, userID string, category string) (int64, error)
	Settle(ctx context.Context, userID string, cost int64) (int64, error)
}

type resolver interface {
	Resolve(category string, name string) (catalog.Descriptor, error)
}

type generator interface {
	Generate(ctx context.Context, d catalog.Descriptor, prompt string, params map[string]any) upstream.Result
}

type Pipeline struct {
	policy  policy
	catalog resolver
	gateway generator
}

func New(p policy, c resolver, g generator) *Pipeline {
	return &Pipeline{policy: p, catalog: c, gateway: g}
}

// Run 执行一次生成。错误类型约定：
//   - *credit.InsufficientCreditsError：余额不足，未触达上游；
//   - catalog.ErrModelNotFound：类目/模型不存在，未触达上游；
//   - sql.ErrNoRows（透传自 store）：账号不存在；
//   - *GenerationError：上游失败，未扣费。
func (p *Pipeline) Run(ctx context.Context, userID string, req Request) (Response, error) {
	// 积分预检先于模型解析（与上游调用前的任何开销）；此处只读不扣。
	cost, err := p.policy.Authorize(ctx, userID, req.Category)
	if err != nil {
		return Response{}, err
	}

	d, err := p.catalog.Resolve(req.Category, req.Model)
	if err != nil {
		return Response{}, err
	}

	// 唯一的长耗时阶段；并发请求之间互不阻塞，上限由 ctx 超时兜底。
	res := p.gateway.Generate(ctx, d, req.Prompt, req.Params)
	if !res.OK {
		return Response{}, &GenerationError{Message: res.Error}
	}

	out := Response{
		Data:      res.Data,
		CostUSD:   res.Cost,
		RequestID: res.RequestID,
		Model:     d.Name,
		Category:  d.Category,
	}

	// 结算以当下余额为准重新读取，绝不复用预检阶段的快照。
	balance, err := p.policy.Settle(ctx, userID, cost)
	if err != nil {
		// 结果已经产生、上游成本已经发生，丢弃产物只会更糟：保留结果，软告警。
		slog.Error("生成成功但积分结算失败", "user_id", userID, "category", d.Category, "cost", cost, "err", err)
		out.CreditWarning = "生成已完成，但积分结算失败，本次未扣费。"
		var ice *credit.InsufficientCreditsError
		if errors.As(err, &ice) {
			out.RemainingCredits = ice.Available
		}
		return out, nil
	}

	out.CreditsUsed = cost
	out.RemainingCredits = balance
	return out, nil
}
