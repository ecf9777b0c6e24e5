package generator

import (
	"context"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 输出故意带上常见噪声，方便观察清洗效果。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("\"")
	if strings.Contains(prompt.User, noTopicPlaceholder) {
		sb.WriteString("**still fixing gas estimates on the swap contract today. #web3")
	} else {
		sb.WriteString("**spent the morning reading about the hot topic instead of shipping. #buidl")
	}
	sb.WriteString("\n\nis it friday yet ?🤔🤔🤔\"")
	return sb.String(), nil
}
