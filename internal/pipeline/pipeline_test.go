package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"noviai/internal/catalog"
	"noviai/internal/credit"
	"noviai/internal/upstream"
)

type fakePolicy struct {
	cost         int64
	authorizeErr error
	settleErr    error
	balance      int64
	settled      []int64
}

func (f *fakePolicy) Authorize(ctx context.Context, userID string, category string) (int64, error) {
	if f.authorizeErr != nil {
		return 0, f.authorizeErr
	}
	return f.cost, nil
}

func (f *fakePolicy) Settle(ctx context.Context, userID string, cost int64) (int64, error) {
	if f.settleErr != nil {
		return 0, f.settleErr
	}
	f.settled = append(f.settled, cost)
	f.balance -= cost
	return f.balance, nil
}

type fakeResolver struct {
	d   catalog.Descriptor
	err error
}

func (f *fakeResolver) Resolve(category string, name string) (catalog.Descriptor, error) {
	return f.d, f.err
}

type fakeGenerator struct {
	result upstream.Result
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, d catalog.Descriptor, prompt string, params map[string]any) upstream.Result {
	f.calls++
	return f.result
}

func okResult() upstream.Result {
	return upstream.Result{
		OK:        true,
		Data:      json.RawMessage(`{"output":"hi"}`),
		Cost:      decimal.RequireFromString("0.00105"),
		RequestID: "req-1",
	}
}

func textDescriptor() catalog.Descriptor {
	return catalog.Descriptor{Category: "Text Generation", Name: "Claude"}
}

func TestRunSuccessSettlesExactCost(t *testing.T) {
	t.Parallel()

	policy := &fakePolicy{cost: 10, balance: 5000}
	gen := &fakeGenerator{result: okResult()}
	p := New(policy, &fakeResolver{d: textDescriptor()}, gen)

	resp, err := p.Run(context.Background(), "u1", Request{Category: "Text Generation", Model: "Claude", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.CreditsUsed != 10 {
		t.Fatalf("expected creditsUsed 10, got %d", resp.CreditsUsed)
	}
	if resp.RemainingCredits != 4990 {
		t.Fatalf("expected remaining 4990, got %d", resp.RemainingCredits)
	}
	if len(policy.settled) != 1 || policy.settled[0] != 10 {
		t.Fatalf("expected exactly one settle of 10, got %v", policy.settled)
	}
	if resp.Model != "Claude" || resp.Category != "Text Generation" {
		t.Fatalf("unexpected echo fields: %+v", resp)
	}
	if resp.RequestID != "req-1" {
		t.Fatalf("unexpected request id %q", resp.RequestID)
	}
	if resp.CreditWarning != "" {
		t.Fatalf("unexpected credit warning %q", resp.CreditWarning)
	}
}

func TestRunInsufficientCreditsSkipsUpstream(t *testing.T) {
	t.Parallel()

	policy := &fakePolicy{authorizeErr: &credit.InsufficientCreditsError{Required: 50, Available: 5}}
	gen := &fakeGenerator{result: okResult()}
	p := New(policy, &fakeResolver{d: textDescriptor()}, gen)

	_, err := p.Run(context.Background(), "u1", Request{Category: "Image Creation", Model: "FLUX 2", Prompt: "x"})
	var ice *credit.InsufficientCreditsError
	if !errors.As(err, &ice) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("upstream must not be touched on insufficient credits")
	}
	if len(policy.settled) != 0 {
		t.Fatalf("no settle expected, got %v", policy.settled)
	}
}

func TestRunUnknownModelNoDebit(t *testing.T) {
	t.Parallel()

	policy := &fakePolicy{cost: 50, balance: 5000}
	gen := &fakeGenerator{result: okResult()}
	p := New(policy, &fakeResolver{err: catalog.ErrModelNotFound}, gen)

	_, err := p.Run(context.Background(), "u1", Request{Category: "Bogus", Model: "Nope", Prompt: "x"})
	if !errors.Is(err, catalog.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("upstream must not be touched on unknown model")
	}
	if len(policy.settled) != 0 {
		t.Fatalf("no settle expected, got %v", policy.settled)
	}
}

func TestRunGenerationFailureNoDebit(t *testing.T) {
	t.Parallel()

	policy := &fakePolicy{cost: 10, balance: 5000}
	gen := &fakeGenerator{result: upstream.Result{Error: "触发上游限流，请稍后重试。"}}
	p := New(policy, &fakeResolver{d: textDescriptor()}, gen)

	_, err := p.Run(context.Background(), "u1", Request{Category: "Text Generation", Model: "Claude", Prompt: "x"})
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if ge.Message == "" {
		t.Fatalf("expected error message")
	}
	if len(policy.settled) != 0 {
		t.Fatalf("failed generation must not debit, got %v", policy.settled)
	}
}

func TestRunSettleFailureKeepsArtifactWithWarning(t *testing.T) {
	t.Parallel()

	policy := &fakePolicy{
		cost:      10,
		settleErr: &credit.InsufficientCreditsError{Required: 10, Available: 3},
	}
	p := New(policy, &fakeResolver{d: textDescriptor()}, &fakeGenerator{result: okResult()})

	resp, err := p.Run(context.Background(), "u1", Request{Category: "Text Generation", Model: "Claude", Prompt: "x"})
	if err != nil {
		t.Fatalf("settle failure must not fail the request, got %v", err)
	}
	if resp.CreditWarning == "" {
		t.Fatalf("expected credit warning")
	}
	if resp.CreditsUsed != 0 {
		t.Fatalf("expected creditsUsed 0 when settle failed, got %d", resp.CreditsUsed)
	}
	if resp.RemainingCredits != 3 {
		t.Fatalf("expected remaining from fresh balance 3, got %d", resp.RemainingCredits)
	}
	if string(resp.Data) == "" {
		t.Fatalf("artifact must be kept")
	}
}
