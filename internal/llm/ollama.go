package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个实现了 LLM 接口的结构体，用于与本地 Ollama 服务交互。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
// baseURL 为空时默认为 "http://localhost:11434"。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 创建一个带有超时设置的 HTTP 客户端。
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	client := olla.NewClient(parsedURL, hc)

	return &Ollama{client: client, model: model}, nil
}

// Generate 使用 Ollama API 生成内容。
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	stream := false

	// 调用 Ollama 客户端的 Generate 方法生成内容。
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream, // 设置为非流式传输。
	}, func(resp olla.GenerateResponse) error {
		result = resp.Response
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	return result, nil
}
