package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxRedisLength Redis 键最大长度
	MaxRedisLength = 100

	// MaxResumeLength 简历与职位描述摘录最大长度
	MaxResumeLength = 150
)

// piiKeywords 属性名包含这些词时值需要掩码
var piiKeywords = []string{
	"email", "phone", "password", "address", "地址",
	"name", "姓名", "contact", "联系", "secret", "token", "api_key",
}

// SafeAttributeValue 敏感属性返回掩码值，其余超长时截断
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，其余替换为 *
func MaskPII(value string) string {
	if value == "" {
		return ""
	}

	runes := []rune(value)
	length := len(runes)
	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[0:1]) + "*"
	case length <= 4:
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	}
	// "jane@example.com" -> "ja************om"
	return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
}

// TruncateString 超长时保留前后两段，中间以 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeRedisKey 缓存键可能很长，截断后再写入属性
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}

// SafeResumeContent 简历正文只保留掩码后的摘录
func SafeResumeContent(content string) string {
	return TruncateString(maskContacts(content), MaxResumeLength)
}

// maskContacts 把看起来像邮箱或电话的片段掩码
func maskContacts(s string) string {
	fields := strings.Fields(s)
	changed := false
	for i, f := range fields {
		if strings.Contains(f, "@") || digitCount(f) >= 7 {
			fields[i] = MaskPII(f)
			changed = true
		}
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
