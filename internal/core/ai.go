package core

import "context"

// PromptBundle carries everything the response model needs in one place.
type PromptBundle struct {
	DocumentContext string
	UserInput       string
	Classification  string
	RAGAnswer       string
	Conversation    string
}

// LLMProvider classifies user input and generates responses.
type LLMProvider interface {
	Classify(ctx context.Context, userInput, documentContext, conversation string) (string, error)
	Respond(ctx context.Context, bundle PromptBundle) (string, error)
}

// TextSummarizer condenses extracted document text into a short description.
type TextSummarizer interface {
	SummarizeText(ctx context.Context, text string) (string, error)
}

// EmbeddingProvider turns texts into vectors for similarity search.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
