package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainai "github.com/mliu/prompthub/internal/domain/ai"
	"github.com/mliu/prompthub/internal/domain/errs"
	portai "github.com/mliu/prompthub/internal/port/ai"
	portcache "github.com/mliu/prompthub/internal/port/cache"
)

const diagnoseSystemPrompt = `You are a prompt engineering reviewer. Score the prompt the user submits on four dimensions: clarity, completeness, effectiveness, structure. Respond with JSON only, no prose and no code fences, in exactly this shape:
{"overall_score": 0.0, "scores": {"clarity": {"score": 0.0, "feedback": ""}, "completeness": {"score": 0.0, "feedback": ""}, "effectiveness": {"score": 0.0, "feedback": ""}, "structure": {"score": 0.0, "feedback": ""}}, "suggestions": [""]}
Scores range 0-10. Keep each feedback under two sentences and give at most five suggestions.`

const optimizeSystemPrompt = `You are a prompt engineering assistant. Rewrite the prompt the user submits to be clearer, better structured, and more effective. Preserve the original intent and language. Respond with the rewritten prompt only.`

// diagnoseCacheTTL keeps repeated diagnoses of unchanged content from
// burning generation tokens.
const diagnoseCacheTTL = time.Hour

// Service orchestrates the diagnose and optimize calls against the
// external generator. The prompt lifecycle never depends on this service —
// a slow or failing generator cannot affect version integrity.
type Service struct {
	gen   portai.Generator
	cache portcache.Cache
}

func NewService(gen portai.Generator, cache portcache.Cache) *Service {
	return &Service{gen: gen, cache: cache}
}

// Diagnose scores prompt content. Results are cached by content hash.
func (s *Service) Diagnose(ctx context.Context, content string) (domainai.DiagnoseResult, error) {
	if content == "" {
		return domainai.DiagnoseResult{}, errs.Validation("content", "must not be empty")
	}

	key := diagnoseCacheKey(content)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var result domainai.DiagnoseResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
		// Unreadable cache entry; fall through to a fresh call.
		s.cache.Invalidate(ctx, key) //nolint:errcheck
	}

	raw, err := s.gen.Complete(ctx, diagnoseSystemPrompt, content)
	if err != nil {
		return domainai.DiagnoseResult{}, fmt.Errorf("diagnose completion: %w", err)
	}

	var result domainai.DiagnoseResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		return domainai.DiagnoseResult{}, fmt.Errorf("parse diagnose response: %w", err)
	}

	if data, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, data, diagnoseCacheTTL); err != nil {
			slog.WarnContext(ctx, "failed to cache diagnose result", "error", err)
		}
	}

	return result, nil
}

// Optimize streams a rewritten prompt. The caller owns the context; a
// cancel abandons the stream and any partial output is discarded.
func (s *Service) Optimize(ctx context.Context, content string) (<-chan portai.Chunk, error) {
	if content == "" {
		return nil, errs.Validation("content", "must not be empty")
	}

	ch, err := s.gen.Stream(ctx, optimizeSystemPrompt, content)
	if err != nil {
		return nil, fmt.Errorf("optimize stream: %w", err)
	}
	return ch, nil
}

func diagnoseCacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "diagnose:" + hex.EncodeToString(sum[:])
}

// stripFences tolerates models that wrap JSON in a markdown code block
// despite the instruction not to.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
