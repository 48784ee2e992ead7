package pipeline

import (
	"context"
	"fmt"
	"strings"

	"studypal/internal/rag/interfaces"
	"studypal/internal/rag/schema"
)

// QA turns a question and retrieved fragments into an answer.
type QA struct {
	llm interfaces.LLM
}

// NewQA builds the answering pipeline.
func NewQA(llm interfaces.LLM) *QA {
	return &QA{llm: llm}
}

// Answer generates a response to the question. With fragments present the
// model is instructed to ground its answer in them; with none it answers
// from its own knowledge and says so.
func (q *QA) Answer(ctx context.Context, question string, fragments []schema.RetrievalResult) (string, error) {
	answer, err := q.llm.Generate(ctx, buildPrompt(question, fragments))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

func buildPrompt(question string, fragments []schema.RetrievalResult) string {
	var b strings.Builder

	if len(fragments) == 0 {
		b.WriteString("Answer the following question. No study material is available for it, ")
		b.WriteString("so answer from general knowledge and mention that the uploaded documents ")
		b.WriteString("do not cover this topic.\n\n")
		b.WriteString("Question: ")
		b.WriteString(question)
		return b.String()
	}

	b.WriteString("Answer the question using the study material below. ")
	b.WriteString("If the material does not contain the answer, say so.\n\n")
	b.WriteString("Study material:\n")
	for i, f := range fragments {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, f.Content))
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
