package upstream

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// categoryProbePaths 定义各类目的提取路径。上游对结果的包裹方式并不一致
// （有的平铺在顶层，有的嵌在 data 里），这里按固定顺序探测，取第一个非空命中，
// 保证归一结果是确定性的。
var categoryProbePaths = map[string]struct {
	key   string
	paths []string
}{
	"Text Generation": {key: "output", paths: []string{"output", "data.output", "text", "data.text"}},
	"Image Creation":  {key: "images", paths: []string{"images", "data.images"}},
	"Video Creation":  {key: "video", paths: []string{"video", "data.video"}},
	"Voice Synthesis": {key: "audio", paths: []string{"audio", "data.audio"}},
}

// Normalize 把上游原始载荷归一成该类目的统一响应形态：
// 文本 → {"output": ...}，图片 → {"images": [...]}，视频 → {"video": {...}}，
// 语音 → {"audio": {...}}。所有路径都未命中时退回去壳后的原始载荷。
func Normalize(category string, payload []byte) json.RawMessage {
	if probe, ok := categoryProbePaths[category]; ok {
		for _, path := range probe.paths {
			hit := gjson.GetBytes(payload, path)
			if !hit.Exists() || hit.Raw == "" {
				continue
			}
			out, err := sjson.SetRawBytes([]byte(`{}`), probe.key, []byte(hit.Raw))
			if err != nil {
				break
			}
			return json.RawMessage(out)
		}
	}
	return unwrapData(payload)
}

// unwrapData 去掉一层 data 包裹（顶层已有 audio 字段时不动，与语音结果的形态保持一致）。
func unwrapData(payload []byte) json.RawMessage {
	if gjson.GetBytes(payload, "audio").Exists() {
		return json.RawMessage(payload)
	}
	if data := gjson.GetBytes(payload, "data"); data.Exists() && data.IsObject() {
		return json.RawMessage(data.Raw)
	}
	return json.RawMessage(payload)
}
