// Package credit 提供按类目的积分定价与扣费策略：鉴权在上游调用之前，结算在成功之后。
package credit

import (
	"context"
	"errors"
	"fmt"

	"noviai/internal/config"
	"noviai/internal/store"
)

// InsufficientCreditsError 携带本次所需与当前可用积分，便于前端展示。
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("积分不足：需要 %d，可用 %d", e.Required, e.Available)
}

type ledger interface {
	GetCredits(ctx context.Context, userID string) (int64, error)
	DebitCredits(ctx context.Context, userID string, amount int64) (int64, error)
}

type Policy struct {
	costs       map[string]int64
	defaultCost int64
	ledger      ledger
}

func NewPolicy(cfg config.CreditsConfig, l ledger) *Policy {
	costs := make(map[string]int64, len(cfg.Costs))
	for k, v := range cfg.Costs {
		costs[k] = v
	}
	defaultCost := cfg.DefaultCost
	if defaultCost <= 0 {
		defaultCost = 50
	}
	return &Policy{costs: costs, defaultCost: defaultCost, ledger: l}
}

// PriceOf 返回类目的积分单价；未配置的类目回退默认单价。
func (p *Policy) PriceOf(category string) int64 {
	if cost, ok := p.costs[category]; ok {
		return cost
	}
	return p.defaultCost
}

// Authorize 校验账号余额是否足以支付该类目一次生成。只读，不做任何扣减；
// 两个并发请求可能同时通过校验，这是已接受并记录的乐观策略（结算时兜底）。
func (p *Policy) Authorize(ctx context.Context, userID string, category string) (int64, error) {
	cost := p.PriceOf(category)
	available, err := p.ledger.GetCredits(ctx, userID)
	if err != nil {
		return 0, err
	}
	if available < cost {
		return 0, &InsufficientCreditsError{Required: cost, Available: available}
	}
	return cost, nil
}

// Settle 在生成成功后扣减积分并返回最新余额。余额以结算时刻为准重新读取；
// 与并发扣费竞争导致不足时返回 InsufficientCreditsError，由调用方决定如何呈现。
func (p *Policy) Settle(ctx context.Context, userID string, cost int64) (int64, error) {
	balance, err := p.ledger.DebitCredits(ctx, userID, cost)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientCredits) {
			return balance, &InsufficientCreditsError{Required: cost, Available: balance}
		}
		return 0, err
	}
	return balance, nil
}
