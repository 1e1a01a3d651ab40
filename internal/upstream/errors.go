package upstream

import "strings"

// ClassifyErrorMessage 按错误信息中的特征子串归类上游错误，给用户可执行的提示；
// 未命中的错误原样透出。只做单次归类，不做重试。
func ClassifyErrorMessage(msg string) string {
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "Unauthorized"):
		return "上游认证失败，请检查 FAL API Key 是否有效。"
	case strings.Contains(msg, "403"):
		return "上游拒绝访问，请检查 API Key 的权限。"
	case strings.Contains(msg, "429"):
		return "触发上游限流，请稍后重试。"
	default:
		return msg
	}
}
