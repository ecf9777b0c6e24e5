package generator

import "context"

// Supported llm.provider values.
const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderMock        = "mock"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
// Complete returns the first choice's text, or "" when there is none.
// A non-success status from the endpoint is reported as *GenerationError.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
