package upstream

import (
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"noviai/internal/catalog"
)

// mediaInputDefaults 是“上游模型 id → 参数默认值”的显式注册表。
// 每个模型的参数 schema 和默认值都不一样；调用方的覆盖参数永远优先，
// 默认值只在对应字段缺失时补齐。未注册的模型直接透传 prompt + 覆盖参数。
var mediaInputDefaults = map[string]map[string]any{
	"fal-ai/stable-diffusion-v35-medium": {
		"negative_prompt":       "",
		"image_size":            "landscape_4_3",
		"num_inference_steps":   40,
		"guidance_scale":        4.5,
		"num_images":            1,
		"enable_safety_checker": true,
		"output_format":         "jpeg",
	},
	"fal-ai/ideogram/v3": {
		"rendering_speed": "BALANCED",
		"expand_prompt":   true,
		"num_images":      1,
		"image_size":      "square_hd",
	},
	"fal-ai/nano-banana-pro": {
		"num_images":    1,
		"aspect_ratio":  "1:1",
		"output_format": "png",
		"resolution":    "1K",
	},
	"fal-ai/flux-pro/v1.1-ultra": {
		"num_images":            1,
		"enable_safety_checker": true,
		"output_format":         "jpeg",
		"safety_tolerance":      "2",
		"image_prompt_strength": 0.1,
		"aspect_ratio":          "16:9",
	},
	"fal-ai/flux-2": {
		"guidance_scale":        2.5,
		"num_inference_steps":   28,
		"image_size":            "landscape_4_3",
		"num_images":            1,
		"acceleration":          "regular",
		"enable_safety_checker": true,
		"output_format":         "png",
	},
	"fal-ai/flux-2-pro": {
		"image_size":            "landscape_4_3",
		"safety_tolerance":      "2",
		"enable_safety_checker": true,
		"output_format":         "jpeg",
	},
	"fal-ai/imagen4/preview/fast": {
		"num_images":    1,
		"aspect_ratio":  "1:1",
		"output_format": "png",
	},
	"fal-ai/gpt-image-1.5": {
		"image_size":    "1024x1024",
		"background":    "auto",
		"quality":       "high",
		"num_images":    1,
		"output_format": "png",
	},
	"fal-ai/bytedance/seedream/v4.5/text-to-image": {
		"image_size":            "auto_2K",
		"num_images":            1,
		"max_images":            1,
		"enable_safety_checker": true,
	},
	"fal-ai/ovis-image": {
		"image_size":            "landscape_4_3",
		"num_inference_steps":   28,
		"guidance_scale":        5,
		"num_images":            1,
		"enable_safety_checker": true,
		"output_format":         "png",
		"acceleration":          "regular",
	},
	"imagineart/imagineart-1.5-preview/text-to-image": {
		"aspect_ratio": "1:1",
		"seed":         0,
	},
	"fal-ai/gemini-3-pro-image-preview": {
		"num_images":    1,
		"aspect_ratio":  "1:1",
		"output_format": "png",
		"resolution":    "1K",
	},
	"fal-ai/emu-3.5-image/text-to-image": {
		"resolution":            "720p",
		"aspect_ratio":          "1:1",
		"enable_safety_checker": true,
		"output_format":         "png",
	},
	"fal-ai/piflow": {
		"image_size":            "square_hd",
		"num_inference_steps":   8,
		"num_images":            1,
		"output_format":         "jpeg",
		"enable_safety_checker": true,
	},
	"fal-ai/flux/krea": {
		"image_size":            "landscape_4_3",
		"num_inference_steps":   28,
		"guidance_scale":        4.5,
		"num_images":            1,
		"enable_safety_checker": true,
		"output_format":         "jpeg",
		"acceleration":          "none",
	},
	"fal-ai/pika/v2.2/text-to-video": {
		"negative_prompt": "ugly, bad, terrible",
		"aspect_ratio":    "16:9",
		"resolution":      "1080p",
		"duration":        5,
	},
	"fal-ai/sora-2/text-to-video": {
		"resolution":   "720p",
		"aspect_ratio": "16:9",
		"duration":     4,
		"delete_video": true,
	},
}

// speechModelID 的输入 schema 与其他媒体模型完全不同（text 而非 prompt），单独分支处理。
const speechModelID = "fal-ai/elevenlabs/tts/multilingual-v2"

var speechInputDefaults = map[string]any{
	"voice":            "Aria",
	"stability":        0.5,
	"similarity_boost": 0.75,
	"speed":            1,
}

// BuildRouterInput 构造文本补全路由的入参：prompt + 模型别名 + 温度，覆盖参数优先。
func BuildRouterInput(d catalog.Descriptor, prompt string, params map[string]any) ([]byte, error) {
	model := d.RouterModel
	if model == "" {
		model = d.FalModelID
	}
	return buildInput(map[string]any{"prompt": prompt}, params, map[string]any{
		"model":       model,
		"temperature": 1,
	})
}

// BuildMediaInput 构造媒体任务入参：注册表命中时补齐该模型的默认值，未命中时透传。
func BuildMediaInput(modelID string, prompt string, params map[string]any) ([]byte, error) {
	return buildInput(map[string]any{"prompt": prompt}, params, mediaInputDefaults[modelID])
}

// BuildSpeechInput 构造语音合成入参（text/voice/stability/similarity_boost/speed）。
func BuildSpeechInput(prompt string, params map[string]any) ([]byte, error) {
	return buildInput(map[string]any{"text": prompt}, params, speechInputDefaults)
}

// buildInput 依次写入 base 字段与调用方覆盖参数，再对缺失字段补默认值。
// 写入顺序固定（键名排序），保证同一输入得到逐字节一致的 JSON。
func buildInput(base map[string]any, params map[string]any, defaults map[string]any) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	for _, k := range sortedKeys(base) {
		if body, err = sjson.SetBytes(body, escapeKey(k), base[k]); err != nil {
			return nil, fmt.Errorf("构造上游入参失败（%s）: %w", k, err)
		}
	}
	for _, k := range sortedKeys(params) {
		if body, err = sjson.SetBytes(body, escapeKey(k), params[k]); err != nil {
			return nil, fmt.Errorf("构造上游入参失败（%s）: %w", k, err)
		}
	}
	for _, k := range sortedKeys(defaults) {
		if gjson.GetBytes(body, escapeKey(k)).Exists() {
			continue
		}
		if body, err = sjson.SetBytes(body, escapeKey(k), defaults[k]); err != nil {
			return nil, fmt.Errorf("构造上游入参失败（%s）: %w", k, err)
		}
	}
	return body, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeKey 把参数名按字面量处理，避免含 '.' 的键被 sjson 当作嵌套路径。
func escapeKey(k string) string {
	out := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		if k[i] == '.' || k[i] == '*' || k[i] == '?' {
			out = append(out, '\\')
		}
		out = append(out, k[i])
	}
	return string(out)
}
