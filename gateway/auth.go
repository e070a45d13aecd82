package gateway

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/modelgate/modelgate/pkg/llm"
)

// requireAuth enforces the static bearer token on the /v1 group. With no
// key configured every request passes, Authorization header or not. A
// missing or non-Bearer header is 401; a well-formed header with the wrong
// token is 403. Nothing is forwarded upstream on either.
func (g *Gateway) requireAuth(c *fiber.Ctx) error {
	key := g.apiKey()
	if key == "" {
		return c.Next()
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(llm.ErrorResponse{Error: "missing Authorization header"})
	}
	if strings.TrimPrefix(header, "Bearer ") != key {
		return c.Status(fiber.StatusForbidden).JSON(llm.ErrorResponse{Error: "invalid API key"})
	}

	return c.Next()
}
