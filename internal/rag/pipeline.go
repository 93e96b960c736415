package rag

import (
	"context"
	"fmt"
	"strings"

	"EduConnect/internal/llm"
	"EduConnect/pkg/logger"
)

// Pipeline answers a question from retrieved context. When no retriever is
// configured the pipeline degrades to asking the LLM directly, so the
// service keeps working without a vector store.
type Pipeline struct {
	retriever Retriever
	llm       llm.LLM
	topK      int
	log       *logger.Logger
}

// NewPipeline creates a Pipeline. The retriever may be nil.
func NewPipeline(retriever Retriever, model llm.LLM, topK int, log *logger.Logger) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{
		retriever: retriever,
		llm:       model,
		topK:      topK,
		log:       log,
	}
}

// Answer retrieves context for the query and asks the LLM to answer from it.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	var chunks []string
	if p.retriever != nil {
		retrieved, err := p.retriever.Retrieve(ctx, query, p.topK)
		if err != nil {
			p.log.Warn(fmt.Sprintf("Retrieval failed, answering without context: %v", err))
		} else {
			chunks = retrieved
		}
	}

	prompt := p.buildPrompt(query, chunks)

	p.log.Info("Sending prompt to LLM to generate answer...")
	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		p.log.Error(fmt.Sprintf("LLM failed to generate answer: %v", err))
		return "", err
	}

	p.log.Info("Successfully generated answer from LLM.")
	return answer, nil
}

// buildPrompt constructs a prompt string from a query and context chunks.
// Without chunks the question is asked directly.
func (p *Pipeline) buildPrompt(query string, chunks []string) string {
	if len(chunks) == 0 {
		return query
	}

	var sb strings.Builder
	sb.WriteString("Based on the following context, please answer the question. If the context does not contain the answer, say that you do not have information about it.\n\nContext:\n")

	for i, chunk := range chunks {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, chunk))
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", query))

	return sb.String()
}
