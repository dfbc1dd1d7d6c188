package linkage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAIModel is the model used for tracker match inference when none is
// configured. Matching is a simple classification task, so the cost-efficient
// tier is enough.
const DefaultAIModel = "claude-3-5-haiku-20241022"

// aiMatchThreshold is the minimum confidence to accept a model-proposed match
const aiMatchThreshold = 0.8

// AIResolverConfig holds settings for the model-backed resolver
type AIResolverConfig struct {
	// APIKey for the Anthropic API. Empty means read ANTHROPIC_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model to use. Empty means DefaultAIModel.
	Model string `yaml:"model"`

	// KnownIssues is the candidate set of tracker records the model matches
	// against: key -> one-line summary with status, e.g.
	// "PROJ-123: App crashes on iOS 17 (In Progress)".
	KnownIssues map[string]string `yaml:"known_issues"`
}

// AIResolver uses model inference to decide whether an issue semantically
// matches a known tracker record. Unlike the static resolver it tolerates
// re-worded titles.
type AIResolver struct {
	client      *anthropic.Client
	model       string
	knownIssues map[string]string
}

// Compile-time check that AIResolver implements Resolver
var _ Resolver = (*AIResolver)(nil)

// NewAIResolver creates a model-backed resolver
func NewAIResolver(cfg AIResolverConfig) (*AIResolver, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultAIModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AIResolver{
		client:      &client,
		model:       model,
		knownIssues: cfg.KnownIssues,
	}, nil
}

// aiMatchResponse is the model's structured answer
type aiMatchResponse struct {
	Matches    bool    `json:"matches"`
	Key        string  `json:"key,omitempty"`
	Status     string  `json:"status,omitempty"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Resolve asks the model whether the issue matches any known tracker record
func (r *AIResolver) Resolve(ctx context.Context, title, description string) (*Result, error) {
	if len(r.knownIssues) == 0 {
		return &Result{Exists: false}, nil
	}

	prompt := r.buildMatchPrompt(title, description)

	resp, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	var match aiMatchResponse
	if err := json.Unmarshal([]byte(stripCodeFences(responseText)), &match); err != nil {
		return nil, fmt.Errorf("failed to parse match response: %w (response: %s)", err, truncate(responseText, 200))
	}

	if match.Confidence < 0.0 || match.Confidence > 1.0 {
		return nil, fmt.Errorf("invalid confidence score: %.2f (must be 0.0-1.0)", match.Confidence)
	}

	if !match.Matches || match.Confidence < aiMatchThreshold {
		if match.Matches {
			log.Printf("[LINKAGE] rejecting low-confidence match for %q: %s (%.2f)", title, match.Key, match.Confidence)
		}
		return &Result{Exists: false}, nil
	}

	if match.Key == "" {
		return nil, fmt.Errorf("model reported a match without a key")
	}

	return &Result{Exists: true, Key: match.Key, Status: match.Status}, nil
}

func (r *AIResolver) buildMatchPrompt(title, description string) string {
	var sb strings.Builder

	sb.WriteString("You match newly reported software issues against an existing tracker.\n\n")
	sb.WriteString("Candidate issue:\n")
	fmt.Fprintf(&sb, "Title: %s\n", title)
	if description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", truncate(description, 1000))
	}
	sb.WriteString("\nExisting tracker records:\n")
	for key, summary := range r.knownIssues {
		fmt.Fprintf(&sb, "- %s: %s\n", key, summary)
	}
	sb.WriteString(`
Does the candidate describe the same underlying problem as one of the records?
Consider semantic similarity, not literal wording.

Respond with ONLY a JSON object:
{"matches": bool, "key": "record key if matches", "status": "record status if known", "confidence": 0.0-1.0, "reasoning": "brief explanation"}
`)

	return sb.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... (truncated)"
}
