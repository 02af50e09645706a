package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"rapantix/internal/types"
)

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	defaultGeminiRegion = "europe-west1"
)

const neighboursPrompt = `Tu aides un jeu où l'on devine les mots cachés de paroles de rap français.
Donne les %d mots français les plus proches sémantiquement de "%s" tels qu'ils
pourraient apparaître dans des paroles (argot compris), avec un score de
similarité entre 0 et 1.
Réponds UNIQUEMENT avec un tableau JSON de la forme
[{"term": "mot", "score": 0.73}, ...], sans commentaire ni markdown.`

// GeminiConfig selects the Gemini backend. APIKey uses the Gemini API;
// otherwise Project (and optionally Region) use Vertex AI with application
// default credentials.
type GeminiConfig struct {
	APIKey  string
	Project string
	Region  string
	Model   string
}

// GeminiScorer asks a Gemini model for semantic neighbours.
type GeminiScorer struct {
	client    *genai.Client
	modelName string
	log       *slog.Logger
}

func NewGeminiScorer(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiScorer, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Region
		if cc.Location == "" {
			cc.Location = defaultGeminiRegion
		}
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini: neither api key nor project configured")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiScorer{client: client, modelName: model, log: logger.With("adapter", "gemini")}, nil
}

func (g *GeminiScorer) Name() string { return "gemini" }

func (g *GeminiScorer) Similar(ctx context.Context, word string, topN int) ([]types.SimilarWord, error) {
	prompt := fmt.Sprintf(neighboursPrompt, ClampTopN(topN), word)
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.2)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generate: %v", ErrUnavailable, err)
	}

	results, err := parseNeighbours(resp.Text(), topN)
	if err != nil {
		g.log.WarnContext(ctx, "gemini response rejected", slog.String("word", word), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return results, nil
}

// parseNeighbours decodes the model's JSON array, dropping blank terms and
// clamping scores into [0, 1].
func parseNeighbours(text string, topN int) ([]types.SimilarWord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}
	var raw []types.SimilarWord
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse neighbours JSON: %w", err)
	}
	out := make([]types.SimilarWord, 0, len(raw))
	for _, r := range raw {
		term := strings.TrimSpace(r.Term)
		if term == "" {
			continue
		}
		out = append(out, types.SimilarWord{Term: term, Score: max(0, min(r.Score, 1))})
		if len(out) == ClampTopN(topN) {
			break
		}
	}
	return out, nil
}
