// Package catalog 提供静态模型目录：类目 → 模型展示信息与上游路由元数据。
// 目录在进程启动时固定，读路径无锁无副作用。
package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	// KindCompletionRouter 表示文本补全路由（单一同步端点、多模型别名）。
	KindCompletionRouter Kind = "completion-router"
	// KindMediaJob 表示异步媒体生成任务（按模型各自的队列端点）。
	KindMediaJob Kind = "media-job"
)

var ErrModelNotFound = errors.New("模型不存在")

type Descriptor struct {
	Category   string
	Name       string
	FalModelID string
	// RouterModel 仅 completion-router 使用：传给路由端点的真实模型别名。
	RouterModel   string
	Logo          string
	Pros          []string
	Cons          []string
	PricePerToken decimal.Decimal
	Kind          Kind
}

type Category struct {
	Name   string
	Models []Descriptor
}

type Catalog struct {
	categories []Category
	index      map[string]map[string]int
}

// New 构建默认目录。同一 (category, name) 只允许出现一次。
func New() *Catalog {
	return newFromCategories(defaultCategories())
}

func newFromCategories(categories []Category) *Catalog {
	c := &Catalog{
		categories: categories,
		index:      make(map[string]map[string]int, len(categories)),
	}
	for ci := range c.categories {
		byName := make(map[string]int, len(c.categories[ci].Models))
		for mi, m := range c.categories[ci].Models {
			byName[m.Name] = mi
		}
		c.index[c.categories[ci].Name] = byName
	}
	return c
}

// Categories 按目录定义顺序返回类目名。
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat.Name)
	}
	return out
}

// Models 返回类目下的模型；未知类目返回空切片。
func (c *Catalog) Models(category string) []Descriptor {
	for _, cat := range c.categories {
		if cat.Name == category {
			return cat.Models
		}
	}
	return nil
}

// Resolve 解析 (category, name) 为唯一的 Descriptor；未命中返回 ErrModelNotFound。
func (c *Catalog) Resolve(category string, name string) (Descriptor, error) {
	byName, ok := c.index[category]
	if !ok {
		return Descriptor{}, ErrModelNotFound
	}
	mi, ok := byName[name]
	if !ok {
		return Descriptor{}, ErrModelNotFound
	}
	for _, cat := range c.categories {
		if cat.Name == category {
			return cat.Models[mi], nil
		}
	}
	return Descriptor{}, ErrModelNotFound
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func defaultCategories() []Category {
	return []Category{
		{
			Name: "Text Generation",
			Models: []Descriptor{
				{
					Category:      "Text Generation",
					Name:          "Claude",
					FalModelID:    "openrouter/router",
					RouterModel:   "anthropic/claude-sonnet-4.5",
					Logo:          "🤖",
					Pros:          []string{"Best for reasoning and analysis", "High quality responses"},
					Cons:          []string{"Slower response time", "Higher cost"},
					PricePerToken: price("0.00015"),
					Kind:          KindCompletionRouter,
				},
				{
					Category:      "Text Generation",
					Name:          "ChatGPT",
					FalModelID:    "openrouter/router",
					RouterModel:   "openai/gpt-4.1",
					Logo:          "💬",
					Pros:          []string{"Great for conversations and creativity", "Fast responses"},
					Cons:          []string{"May lack depth in complex topics"},
					PricePerToken: price("0.00010"),
					Kind:          KindCompletionRouter,
				},
				{
					Category:      "Text Generation",
					Name:          "DeepSeek",
					FalModelID:    "openrouter/router",
					RouterModel:   "google/gemini-2.5-flash",
					Logo:          "🔍",
					Pros:          []string{"Efficient for coding tasks", "Fast and cost-effective"},
					Cons:          []string{"Less creative than others"},
					PricePerToken: price("0.00008"),
					Kind:          KindCompletionRouter,
				},
			},
		},
		{
			Name: "Image Creation",
			Models: []Descriptor{
				{
					Category:      "Image Creation",
					Name:          "Midjourney",
					FalModelID:    "fal-ai/stable-diffusion-v35-medium",
					Logo:          "🎨",
					Pros:          []string{"Artistic and creative images", "High quality output"},
					Cons:          []string{"Slower generation time"},
					PricePerToken: price("0.00025"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Flux Pro Ultra",
					FalModelID:    "fal-ai/flux-pro/v1.1-ultra",
					Logo:          "✨",
					Pros:          []string{"Ultra high quality images", "Excellent detail and realism"},
					Cons:          []string{"Slower generation", "Higher resource usage"},
					PricePerToken: price("0.00025"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Flux 2",
					FalModelID:    "fal-ai/flux-2",
					Logo:          "🌊",
					Pros:          []string{"Fast generation", "Good quality", "Balanced performance"},
					Cons:          []string{"Standard quality compared to Pro"},
					PricePerToken: price("0.00020"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Flux 2 Pro",
					FalModelID:    "fal-ai/flux-2-pro",
					Logo:          "🌟",
					Pros:          []string{"Professional quality", "High detail", "Excellent realism"},
					Cons:          []string{"Slower than standard Flux 2"},
					PricePerToken: price("0.00022"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Imagen 4",
					FalModelID:    "fal-ai/imagen4/preview/fast",
					Logo:          "🖼️",
					Pros:          []string{"Fast generation", "Google quality", "Good for narratives"},
					Cons:          []string{"Preview version"},
					PricePerToken: price("0.00020"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "GPT Image 1.5",
					FalModelID:    "fal-ai/gpt-image-1.5",
					Logo:          "🤖",
					Pros:          []string{"Realistic photos", "High quality", "Good coordinates support"},
					Cons:          []string{"Limited customization"},
					PricePerToken: price("0.00021"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Seedream 4.5",
					FalModelID:    "fal-ai/bytedance/seedream/v4.5/text-to-image",
					Logo:          "🌱",
					Pros:          []string{"Good text rendering", "Creative outputs", "Auto sizing"},
					Cons:          []string{"Limited control options"},
					PricePerToken: price("0.00019"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Ovis Image",
					FalModelID:    "fal-ai/ovis-image",
					Logo:          "🐑",
					Pros:          []string{"Creative and artistic", "Good for abstract concepts"},
					Cons:          []string{"May be slower"},
					PricePerToken: price("0.00020"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "ImagineArt 1.5",
					FalModelID:    "imagineart/imagineart-1.5-preview/text-to-image",
					Logo:          "🎭",
					Pros:          []string{"Artistic style", "Good for portraits", "Fast generation"},
					Cons:          []string{"Preview version", "Limited aspect ratios"},
					PricePerToken: price("0.00018"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Gemini 3 Pro Image",
					FalModelID:    "fal-ai/gemini-3-pro-image-preview",
					Logo:          "💎",
					Pros:          []string{"Google quality", "High resolution", "Good detail"},
					Cons:          []string{"Preview version"},
					PricePerToken: price("0.00022"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Emu 3.5 Image",
					FalModelID:    "fal-ai/emu-3.5-image/text-to-image",
					Logo:          "🦘",
					Pros:          []string{"High quality", "Good detail", "Meta technology"},
					Cons:          []string{"May be slower"},
					PricePerToken: price("0.00021"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Piflow",
					FalModelID:    "fal-ai/piflow",
					Logo:          "π",
					Pros:          []string{"Very fast generation", "Good quality", "Efficient"},
					Cons:          []string{"Fewer inference steps"},
					PricePerToken: price("0.00017"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Flux Krea",
					FalModelID:    "fal-ai/flux/krea",
					Logo:          "🎨",
					Pros:          []string{"Artistic style", "Good for street photography", "Natural look"},
					Cons:          []string{"Slower with no acceleration"},
					PricePerToken: price("0.00020"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Ideogram",
					FalModelID:    "fal-ai/ideogram/v3",
					Logo:          "🖼️",
					Pros:          []string{"Text and logo generation", "Good text rendering"},
					Cons:          []string{"Limited to specific use cases"},
					PricePerToken: price("0.00020"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Image Creation",
					Name:          "Nano Banana Pro",
					FalModelID:    "fal-ai/nano-banana-pro",
					Logo:          "🍌",
					Pros:          []string{"Fast and reliable generation", "Good quality"},
					Cons:          []string{"Fewer customization options"},
					PricePerToken: price("0.00018"),
					Kind:          KindMediaJob,
				},
			},
		},
		{
			Name: "Video Creation",
			Models: []Descriptor{
				{
					Category:      "Video Creation",
					Name:          "Pika",
					FalModelID:    "fal-ai/pika/v2.2/text-to-video",
					Logo:          "🎥",
					Pros:          []string{"Quick video clips", "Good quality"},
					Cons:          []string{"Limited duration"},
					PricePerToken: price("0.00180"),
					Kind:          KindMediaJob,
				},
				{
					Category:      "Video Creation",
					Name:          "Sora",
					FalModelID:    "fal-ai/sora-2/text-to-video",
					Logo:          "🌟",
					Pros:          []string{"High-quality cinematic videos", "Best quality"},
					Cons:          []string{"Higher cost", "Longer generation time"},
					PricePerToken: price("0.00320"),
					Kind:          KindMediaJob,
				},
			},
		},
		{
			Name: "Voice Synthesis",
			Models: []Descriptor{
				{
					Category:      "Voice Synthesis",
					Name:          "ElevenLabs",
					FalModelID:    "fal-ai/elevenlabs/tts/multilingual-v2",
					Logo:          "🎙️",
					Pros:          []string{"Natural voice cloning", "High quality audio", "Multilingual support"},
					Cons:          []string{"Limited voice options"},
					PricePerToken: price("0.00030"),
					Kind:          KindMediaJob,
				},
			},
		},
	}
}
