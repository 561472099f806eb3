package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/recpolicy/policyrag/internal/core"
)

// ClassValidRAG is the label the classifier returns for questions that
// should be answered from the document index.
const ClassValidRAG = "Valid RAG Question"

const classifySystemPrompt = `You are a strict classifier for a policy document assistant.
Given the available document descriptions, the conversation so far and the user's input,
answer with exactly one label:
"Valid RAG Question" when the input asks about the documents' content,
"General Conversation" otherwise. Output the label and nothing else.`

const respondSystemPrompt = `You are a policy document assistant. Answer using the retrieved
document content when it is provided; otherwise reply conversationally. If the retrieved
content does not cover the question, say so instead of guessing.`

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Classify labels the user input against the available documents and the
// conversation so far.
func (g *GeminiLLM) Classify(ctx context.Context, userInput, documentContext, conversation string) (string, error) {
	userPrompt := fmt.Sprintf("Documents:\n%s\nConversation:\n%s\nUser input: %s",
		documentContext, conversation, userInput)

	out, err := g.generate(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Respond generates the assistant reply from the assembled prompt bundle.
func (g *GeminiLLM) Respond(ctx context.Context, bundle core.PromptBundle) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Documents:\n%s\n", bundle.DocumentContext)
	fmt.Fprintf(&b, "Conversation so far:\n%s\n", bundle.Conversation)
	fmt.Fprintf(&b, "Input classification: %s\n", bundle.Classification)
	if bundle.RAGAnswer != "" {
		fmt.Fprintf(&b, "Retrieved content:\n%s\n", bundle.RAGAnswer)
	}
	fmt.Fprintf(&b, "\nQuestion: %s", bundle.UserInput)

	out, err := g.generate(ctx, respondSystemPrompt, b.String())
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	return out, nil
}

const summarizeSystemPrompt = `Summarize the given document text in at most five sentences,
keeping the concrete policy names, obligations and figures it mentions.`

// SummarizeText condenses extracted document text; the ingestion pipeline
// stores the result as the document description.
func (g *GeminiLLM) SummarizeText(ctx context.Context, text string) (string, error) {
	out, err := g.generate(ctx, summarizeSystemPrompt, text)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (g *GeminiLLM) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
var _ core.TextSummarizer = (*GeminiLLM)(nil)
