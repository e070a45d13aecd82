package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modelgate/modelgate/pkg/llm"
)

// healthResponse is the /health payload. The HTTP status is always 200;
// failures are reported in-band through ok and error.
type healthResponse struct {
	OK      bool     `json:"ok"`
	Backend string   `json:"backend,omitempty"`
	Base    string   `json:"base"`
	Models  []string `json:"models,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// handleHealth probes the upstream, native model listing first, then the
// OpenAI-compatible one. When both fail the upstream is reported
// unreachable instead of guessing a dialect.
func (g *Gateway) handleHealth(c *fiber.Ctx) error {
	base := g.config.BaseURL()

	models, nativeErr := g.probeTags(c.Context())
	if nativeErr == nil {
		return c.JSON(healthResponse{OK: true, Backend: DialectNative.String(), Base: base, Models: models})
	}

	models, compatErr := g.probeModels(c.Context())
	if compatErr == nil {
		return c.JSON(healthResponse{OK: true, Backend: DialectOpenAI.String(), Base: base, Models: models})
	}

	g.logger.Warn("health probes failed",
		zap.NamedError("native", nativeErr),
		zap.NamedError("openai", compatErr),
	)
	return c.JSON(healthResponse{
		OK:    false,
		Base:  base,
		Error: fmt.Sprintf("native: %v; openai: %v", nativeErr, compatErr),
	})
}

// probeTags lists model names via Ollama's native /api/tags.
func (g *Gateway) probeTags(ctx context.Context) ([]string, error) {
	resp, err := g.getUpstream(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var tags llm.OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// probeModels lists model IDs via the OpenAI-compatible /v1/models.
func (g *Gateway) probeModels(ctx context.Context) ([]string, error) {
	resp, err := g.getUpstream(ctx, "/v1/models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	var list llm.ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
