package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the model used when GenAIConfig.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// SystemPrompt instructs the model to answer with the JSON report shape
// understood by Normalize.
const SystemPrompt = `You are an expert C programming code analyzer. Analyze the provided C code and return a structured response with:
1. A comprehensive summary explaining what the code does, its purpose, and how it works
2. A list of any syntax errors, logical issues, or potential bugs
3. A list of improvement suggestions for performance, readability, or best practices

Format your response as JSON with these exact keys:
{
  "summary": "detailed explanation here",
  "errors": ["error 1", "error 2"],
  "suggestions": ["suggestion 1", "suggestion 2"]
}

Be thorough but concise. Focus on practical, actionable feedback.`

// contentGenerator is the subset of *genai.Models used by GenAIAnalyzer.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIConfig configures a GenAIAnalyzer.
type GenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Logger      *slog.Logger
}

// GenAIAnalyzer analyzes C source with a Gemini model.
type GenAIAnalyzer struct {
	models      contentGenerator
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewGenAIAnalyzer creates an analyzer backed by the Google GenAI API.
func NewGenAIAnalyzer(ctx context.Context, cfg GenAIConfig) (*GenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGenAIAnalyzer(client.Models, cfg), nil
}

func newGenAIAnalyzer(models contentGenerator, cfg GenAIConfig) *GenAIAnalyzer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &GenAIAnalyzer{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Analyze implements Analyzer.
func (a *GenAIAnalyzer) Analyze(ctx context.Context, source string) (Result, error) {
	if strings.TrimSpace(source) == "" {
		return Result{}, ErrEmptySource
	}

	a.logger.Debug("analyzing source", "model", a.model, "length", len(source))

	resp, err := a.models.GenerateContent(ctx, a.model,
		genai.Text("Analyze this C code:\n\n"+source),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(a.temperature),
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty response", ErrAnalysisFailed)
	}

	return ParseModelOutput(resp.Text(), a.logger), nil
}

// ParseModelOutput converts the raw model text into a Result. Markdown code
// fences are stripped first. Text that is not valid JSON becomes the
// summary of an otherwise empty Result.
func ParseModelOutput(text string, logger *slog.Logger) Result {
	cleaned := stripCodeFences(text)
	res, err := NormalizeJSON([]byte(cleaned))
	if err != nil {
		if logger != nil {
			logger.Warn("model output is not JSON, using text as summary", "error", err)
		}
		return Result{Summary: text, Errors: []string{}, Suggestions: []string{}}
	}
	return res
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json\n", "")
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```\n", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
