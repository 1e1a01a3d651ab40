package upstream

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"noviai/internal/catalog"
)

func TestBuildRouterInput(t *testing.T) {
	t.Parallel()

	d := catalog.Descriptor{
		FalModelID:  "openrouter/router",
		RouterModel: "anthropic/claude-sonnet-4.5",
		Kind:        catalog.KindCompletionRouter,
	}
	body, err := BuildRouterInput(d, "hello", nil)
	if err != nil {
		t.Fatalf("BuildRouterInput: %v", err)
	}
	if got := gjson.GetBytes(body, "prompt").String(); got != "hello" {
		t.Fatalf("prompt: got %q", got)
	}
	if got := gjson.GetBytes(body, "model").String(); got != "anthropic/claude-sonnet-4.5" {
		t.Fatalf("model: got %q", got)
	}
	if got := gjson.GetBytes(body, "temperature").Float(); got != 1 {
		t.Fatalf("temperature: got %v", got)
	}
}

func TestBuildRouterInputOverrides(t *testing.T) {
	t.Parallel()

	d := catalog.Descriptor{FalModelID: "openrouter/router", RouterModel: "alias", Kind: catalog.KindCompletionRouter}
	body, err := BuildRouterInput(d, "hello", map[string]any{"temperature": 0.2, "max_tokens": 100})
	if err != nil {
		t.Fatalf("BuildRouterInput: %v", err)
	}
	// 调用方覆盖优先于默认值。
	if got := gjson.GetBytes(body, "temperature").Float(); got != 0.2 {
		t.Fatalf("temperature override lost: got %v", got)
	}
	if got := gjson.GetBytes(body, "max_tokens").Int(); got != 100 {
		t.Fatalf("max_tokens: got %d", got)
	}
}

func TestBuildMediaInputDefaults(t *testing.T) {
	t.Parallel()

	body, err := BuildMediaInput("fal-ai/stable-diffusion-v35-medium", "a cat", nil)
	if err != nil {
		t.Fatalf("BuildMediaInput: %v", err)
	}
	if got := gjson.GetBytes(body, "prompt").String(); got != "a cat" {
		t.Fatalf("prompt: got %q", got)
	}
	if got := gjson.GetBytes(body, "image_size").String(); got != "landscape_4_3" {
		t.Fatalf("image_size default: got %q", got)
	}
	if got := gjson.GetBytes(body, "num_inference_steps").Int(); got != 40 {
		t.Fatalf("num_inference_steps default: got %d", got)
	}
	if got := gjson.GetBytes(body, "guidance_scale").Float(); got != 4.5 {
		t.Fatalf("guidance_scale default: got %v", got)
	}
	if !gjson.GetBytes(body, "enable_safety_checker").Bool() {
		t.Fatalf("enable_safety_checker default lost")
	}
}

func TestBuildMediaInputOverrideBeatsDefault(t *testing.T) {
	t.Parallel()

	body, err := BuildMediaInput("fal-ai/ideogram/v3", "poster", map[string]any{"num_images": 4})
	if err != nil {
		t.Fatalf("BuildMediaInput: %v", err)
	}
	if got := gjson.GetBytes(body, "num_images").Int(); got != 4 {
		t.Fatalf("override lost: got %d", got)
	}
	if got := gjson.GetBytes(body, "rendering_speed").String(); got != "BALANCED" {
		t.Fatalf("default lost: got %q", got)
	}
}

func TestBuildMediaInputUnknownModelPassthrough(t *testing.T) {
	t.Parallel()

	body, err := BuildMediaInput("vendor/unknown-model", "x", map[string]any{"foo": "bar"})
	if err != nil {
		t.Fatalf("BuildMediaInput: %v", err)
	}
	parsed := gjson.ParseBytes(body).Map()
	if len(parsed) != 2 {
		t.Fatalf("expected prompt+foo only, got %v", parsed)
	}
	if parsed["foo"].String() != "bar" {
		t.Fatalf("foo: got %q", parsed["foo"].String())
	}
}

func TestBuildSpeechInput(t *testing.T) {
	t.Parallel()

	body, err := BuildSpeechInput("read this", map[string]any{"speed": 1.2})
	if err != nil {
		t.Fatalf("BuildSpeechInput: %v", err)
	}
	// 语音模型用 text 字段而不是 prompt。
	if got := gjson.GetBytes(body, "text").String(); got != "read this" {
		t.Fatalf("text: got %q", got)
	}
	if gjson.GetBytes(body, "prompt").Exists() {
		t.Fatalf("speech input must not carry prompt")
	}
	if got := gjson.GetBytes(body, "voice").String(); got != "Aria" {
		t.Fatalf("voice default: got %q", got)
	}
	if got := gjson.GetBytes(body, "stability").Float(); got != 0.5 {
		t.Fatalf("stability default: got %v", got)
	}
	if got := gjson.GetBytes(body, "similarity_boost").Float(); got != 0.75 {
		t.Fatalf("similarity_boost default: got %v", got)
	}
	if got := gjson.GetBytes(body, "speed").Float(); got != 1.2 {
		t.Fatalf("speed override lost: got %v", got)
	}
}

func TestBuildInputDottedKeyLiteral(t *testing.T) {
	t.Parallel()

	body, err := BuildMediaInput("vendor/unknown-model", "x", map[string]any{"a.b": 1})
	if err != nil {
		t.Fatalf("BuildMediaInput: %v", err)
	}
	// 含 '.' 的键按字面量写入，不能被当成嵌套路径。
	if !gjson.GetBytes(body, `a\.b`).Exists() {
		t.Fatalf("dotted key not stored literally: %s", body)
	}
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	d := catalog.Descriptor{PricePerToken: decimal.RequireFromString("0.00015")}

	// ceil(26/4)=7 → 7*0.00015 = 0.00105
	got := EstimateCost(d, "Write a haiku about coding")
	if !got.Equal(decimal.RequireFromString("0.00105")) {
		t.Fatalf("expected 0.00105, got %s", got)
	}

	// 成本对 prompt 长度单调不减。
	prev := decimal.Zero
	prompt := ""
	for i := 0; i < 40; i++ {
		prompt += "x"
		cost := EstimateCost(d, prompt)
		if cost.LessThan(prev) {
			t.Fatalf("cost not monotonic at len=%d: %s < %s", i+1, cost, prev)
		}
		prev = cost
	}
}
