package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Manager owns the prompt templates and response parsing for every LLM
// feature the service exposes.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return m.embedder.Embed(ctx, text, taskType)
}

func (m *Manager) EmbeddingModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

// Answer grounds the question in the retrieved context and returns the raw
// model reply.
func (m *Manager) Answer(ctx context.Context, question string, contextText string) (string, error) {
	prompt := fmt.Sprintf(`Based on the following context, answer the question.

Context:
%s

Question: %s

Answer:`, contextText, question)
	return m.generateText(ctx, prompt)
}

// ExtractQueryEntities asks the model for the key entities in a question and
// parses its comma-separated reply.
func (m *Manager) ExtractQueryEntities(ctx context.Context, question string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract key entities from this question.
Return ONLY a comma-separated list of entities, no explanations.

Question: %s

Entities:`, question)
	result, err := m.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseEntityList(result), nil
}

type ExtractedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ExtractedRelation struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Type    string `json:"type"`
	Context string `json:"context"`
}

type ExtractResult struct {
	Entities      []ExtractedEntity   `json:"entities"`
	Relationships []ExtractedRelation `json:"relationships"`
}

// ExtractGraph runs the entity/relationship extraction prompt over a single
// text window and parses the JSON reply.
func (m *Manager) ExtractGraph(ctx context.Context, text string) (*ExtractResult, error) {
	prompt := fmt.Sprintf(`Extract key entities and their relationships from this text.
Format as JSON with these arrays:
1. entities: [{"name": "entity name", "type": "PERSON|ORGANIZATION|CONCEPT|TECHNOLOGY|LOCATION|DATE"}]
2. relationships: [{"source": "source entity", "target": "target entity", "type": "relationship type", "context": "brief context"}]

Text:
%s

JSON:`, text)
	result, err := m.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseExtractResult(result)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.generator == nil {
		return "", ErrUnavailable
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func ParseEntityList(output string) []string {
	parts := strings.Split(output, ",")
	entities := make([]string, 0, len(parts))
	seen := make(map[string]bool)
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		entities = append(entities, name)
	}
	return entities
}

// ParseExtractResult tolerates the usual LLM decoration around JSON: code
// fences, leading prose, trailing commentary.
func ParseExtractResult(output string) (*ExtractResult, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var result ExtractResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, fmt.Errorf("parse extract result: %w", err)
	}
	return &result, nil
}
