// Package gateway implements a protocol-translating proxy between callers
// speaking the OpenAI chat-completions API and an upstream inference server
// speaking either Ollama's native API or an OpenAI-compatible one. The
// upstream dialect is probed and cached; requests and responses (unary and
// streaming) are remapped per dialect on the way through.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Gateway is the translating proxy. Request handling is stateless; the only
// process-wide mutable state is the detector's dialect cache and the
// hot-reloadable shared secret.
type Gateway struct {
	config   Config
	logger   *zap.Logger
	detector *Detector
	server   *fiber.App

	// chatClient tolerates slow token generation on forwarded chat
	// calls. Probes and model listings use the short-timeout probeClient
	// instead.
	chatClient  *http.Client
	probeClient *http.Client

	// secret is the bearer token, swappable at runtime by the config
	// watcher without restarting the listener.
	secret atomic.Pointer[string]
}

// New creates a Gateway and registers its routes.
func New(config Config, logger *zap.Logger) *Gateway {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	g := &Gateway{
		config:   config,
		logger:   logger,
		server:   app,
		detector: NewDetector(config.BaseURL(), config.ProbeTimeout, config.DetectTTL, logger),
		chatClient: &http.Client{
			// Chat calls can be slow, especially with long generations
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 60 * time.Second}).DialContext,
			},
		},
		probeClient: &http.Client{Timeout: config.ProbeTimeout},
	}
	g.SetAPIKey(config.APIKey)

	app.Get("/", g.handleRoot)
	app.Get("/health", g.handleHealth)

	v1 := app.Group("/v1", g.requireAuth)
	v1.Post("/chat/completions", g.handleChatCompletions)
	v1.Get("/models", g.handleModels)

	return g
}

// Run starts the gateway server on the configured listening address.
func (g *Gateway) Run() error {
	g.logger.Info("starting gateway",
		zap.String("listen", g.config.ListenAddr),
		zap.String("upstream", g.config.BaseURL()),
		zap.Bool("auth", g.apiKey() != ""),
	)

	return g.server.Listen(g.config.ListenAddr)
}

// Close shuts down the gateway server.
func (g *Gateway) Close() error {
	return g.server.Shutdown()
}

// SetAPIKey swaps the shared secret. An empty key disables auth.
func (g *Gateway) SetAPIKey(key string) {
	g.secret.Store(&key)
}

func (g *Gateway) apiKey() string {
	if p := g.secret.Load(); p != nil {
		return *p
	}
	return ""
}

// handleRoot answers the static greeting; no upstream interaction.
func (g *Gateway) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"greeting": "Hello, World!",
		"message":  "Welcome to modelgate!",
	})
}

// postUpstream issues a JSON POST against the upstream base URL using the
// long-timeout chat client. The caller owns the response body.
func (g *Gateway) postUpstream(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL()+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.chatClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do upstream request: %w", err)
	}
	return resp, nil
}

// getUpstream issues a GET against the upstream base URL using the
// short-timeout probe client. The caller owns the response body.
func (g *Gateway) getUpstream(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.BaseURL()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}

	resp, err := g.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do upstream request: %w", err)
	}
	return resp, nil
}
