package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/modelgate/modelgate/pkg/llm"
)

// handleModels presents the upstream's model catalog in the OpenAI list
// shape regardless of dialect: a native upstream's /api/tags listing is
// translated, an OpenAI-compatible upstream's /v1/models is relayed
// verbatim.
func (g *Gateway) handleModels(c *fiber.Ctx) error {
	dialect := g.detector.Detect(c.Context())

	if dialect == DialectOpenAI {
		resp, err := g.getUpstream(c.Context(), "/v1/models")
		if err != nil {
			g.logger.Error("upstream request failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			g.logger.Error("failed to read upstream response", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
		}
		relayContentType(c, resp)
		return c.Status(resp.StatusCode).Send(raw)
	}

	resp, err := g.getUpstream(c.Context(), "/api/tags")
	if err != nil {
		g.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		relayContentType(c, resp)
		return c.Status(resp.StatusCode).Send(raw)
	}

	var tags llm.OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		g.logger.Error("failed to parse upstream response", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "invalid upstream response"})
	}

	return c.JSON(llm.FromOllamaTags(&tags))
}
