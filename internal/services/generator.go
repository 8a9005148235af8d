package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeneratorService is the thin wrapper around the external card generator.
// The scheduler never looks inside the content it produces; this service
// only turns note text into question/answer rows.
type GeneratorService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

// GeneratedCard is the generator's output shape, before it is attached to
// a class and a source chunk.
type GeneratedCard struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Hint       *string  `json:"hint"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

func NewGeneratorService(apiKey string, concurrentReqs int) (*GeneratorService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeneratorService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeneratorService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeneratorService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GeneratorService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateCards asks the generator for numCards flashcards over the note
// text and parses its JSON reply.
func (s *GeneratorService) GenerateCards(ctx context.Context, noteText string, numCards int) ([]GeneratedCard, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := buildCardPrompt(noteText, numCards)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	cards, err := parseGeneratedCards(extractText(resp))
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func buildCardPrompt(noteText string, numCards int) string {
	var b strings.Builder

	b.WriteString("You are an expert educational content creator. Generate flashcards from the following study notes.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d flashcards. Each element must have this shape:\n", numCards))
	b.WriteString(`{"question": "...", "answer": "...", "hint": "..." or null, "difficulty": "easy"|"medium"|"hard", "tags": ["..."]}`)
	b.WriteString("\n\nRules: questions test one concept each; answers are complete but concise; tags name the topic of the question.\n\n")
	b.WriteString("---NOTES START---\n")
	b.WriteString(noteText)
	b.WriteString("\n---NOTES END---\n")

	return b.String()
}

func parseGeneratedCards(raw string) ([]GeneratedCard, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var cards []GeneratedCard
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		// Models sometimes wrap the array in prose despite instructions.
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("generator returned no JSON array: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &cards); err != nil {
			return nil, fmt.Errorf("generator returned malformed JSON: %w", err)
		}
	}

	for i := range cards {
		switch cards[i].Difficulty {
		case "easy", "medium", "hard":
		default:
			cards[i].Difficulty = "medium"
		}
		if cards[i].Tags == nil {
			cards[i].Tags = []string{}
		}
	}
	return cards, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
