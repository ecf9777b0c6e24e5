package main

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"auto_x_post_publisher/generator"
	"auto_x_post_publisher/publisher"
)

func TestBuildLLM(t *testing.T) {
	tests := []struct {
		name    string
		llm     *publisher.LLMConfig
		wantErr bool
	}{
		{"missing", nil, true},
		{"no provider", &publisher.LLMConfig{}, true},
		{"unknown provider", &publisher.LLMConfig{Provider: "ollama"}, true},
		{"huggingface without base url", &publisher.LLMConfig{Provider: "huggingface", Model: "m", APIKey: "k"}, true},
		{"openai without key", &publisher.LLMConfig{Provider: "openai", Model: "m"}, true},
		{"openai", &publisher.LLMConfig{Provider: "openai", Model: "m", APIKey: "k"}, false},
		{"huggingface", &publisher.LLMConfig{Provider: "huggingface", Model: "m", APIKey: "k", BaseURL: "https://router.huggingface.co/v1"}, false},
		{"mock", &publisher.LLMConfig{Provider: "mock"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildLLM(publisher.Config{LLM: tt.llm})
			assert.Equal(t, err != nil, tt.wantErr)
		})
	}
}

func TestBuildLLMMockType(t *testing.T) {
	llm, err := buildLLM(publisher.Config{LLM: &publisher.LLMConfig{Provider: "mock"}})
	assert.Equal(t, err, nil)
	_, ok := llm.(generator.MockLLM)
	assert.Equal(t, ok, true)
}
