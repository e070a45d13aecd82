package gateway

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/modelgate/modelgate/pkg/llm"
)

// handleChatCompletions is the translation endpoint. The caller's stream
// flag alone decides between one unary JSON body and one SSE stream; the
// upstream's own behavior never does.
func (g *Gateway) handleChatCompletions(c *fiber.Ctx) error {
	body := c.Body()
	log := g.logger.With(zap.String("request_id", uuid.NewString()))

	dialect := g.detector.Detect(c.Context())

	log.Debug("received chat request",
		zap.String("dialect", dialect.String()),
		zap.String("model", gjson.GetBytes(body, "model").String()),
		zap.Bool("stream", gjson.GetBytes(body, "stream").Bool()),
		zap.Int("body_size", len(body)),
	)

	if dialect == DialectNative {
		return g.forwardNative(c, log, body)
	}
	return g.relayCompat(c, log, body)
}

// forwardNative translates the request into Ollama's /api/chat body and the
// response back into the OpenAI shape.
func (g *Gateway) forwardNative(c *fiber.Ctx, log *zap.Logger, body []byte) error {
	var req llm.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	ollamaBody, err := json.Marshal(llm.ToOllamaChat(&req))
	if err != nil {
		log.Error("failed to marshal upstream request", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	resp, err := g.postUpstream(c.Context(), "/api/chat", ollamaBody)
	if err != nil {
		g.detector.Invalidate()
		log.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		log.Warn("upstream returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		// relay upstream errors verbatim, never synthesize a success
		relayContentType(c, resp)
		return c.Status(resp.StatusCode).Send(raw)
	}

	if !req.Stream {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Error("failed to read upstream response", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
		}

		var ollamaResp llm.OllamaChatResponse
		if err := json.Unmarshal(raw, &ollamaResp); err != nil {
			log.Error("failed to parse upstream response", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "invalid upstream response"})
		}

		log.Debug("received upstream response",
			zap.String("role", ollamaResp.Message.Role),
			zap.String("finish_reason", ollamaResp.DoneReason),
		)
		return c.JSON(llm.FromOllamaChat(req.Model, &ollamaResp))
	}

	// Native streaming: upstream emits newline-delimited JSON chunks,
	// the caller expects SSE frames. A producer goroutine feeds chunks
	// through a bounded channel to the response writer, which shuts the
	// producer down when it stops writing for any reason.
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Transfer-Encoding", "chunked")

	lines := streamLines(resp.Body, log)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		writeSSEFrames(w, lines)
		// Release the producer on every exit path, including a caller
		// disconnect mid-stream: closing the body ends its reads,
		// draining unblocks a pending send.
		resp.Body.Close()
		for range lines {
		}
	}))
	return nil
}

// relayCompat forwards the raw body to the upstream's own chat-completions
// endpoint byte-identical and relays the response verbatim, streamed or
// not. No field translation happens on this path.
func (g *Gateway) relayCompat(c *fiber.Ctx, log *zap.Logger, body []byte) error {
	stream := gjson.GetBytes(body, "stream").Bool()

	resp, err := g.postUpstream(c.Context(), "/v1/chat/completions", body)
	if err != nil {
		g.detector.Invalidate()
		log.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
	}

	if !stream || resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Error("failed to read upstream response", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: "upstream request failed"})
		}
		relayContentType(c, resp)
		return c.Status(resp.StatusCode).Send(raw)
	}

	// The upstream already emits SSE frames and its own terminal marker,
	// so raw chunks are copied through without reframing.
	relayContentType(c, resp)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer resp.Body.Close()
		relayChunks(w, resp.Body)
	}))
	return nil
}

// relayContentType copies the upstream Content-Type onto the response when
// the upstream set one.
func relayContentType(c *fiber.Ctx, resp *http.Response) {
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "" {
		c.Set(fiber.HeaderContentType, ct)
	}
}

// streamLines reads newline-delimited JSON chunks from the upstream body
// into a bounded channel, skipping blank lines. The channel closes when the
// upstream stream ends or errors out. The consumer owns shutdown: it must
// close the body and drain the channel when it stops reading early, which
// releases the producer even while blocked mid-send.
func streamLines(body io.Reader, log *zap.Logger) <-chan []byte {
	lines := make(chan []byte, 16)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			// the scanner reuses its buffer across Scan calls
			chunk := make([]byte, len(line))
			copy(chunk, line)
			lines <- chunk
		}
		if err := scanner.Err(); err != nil {
			log.Warn("error reading upstream stream", zap.Error(err))
		}
	}()

	return lines
}

// writeSSEFrames emits one "data: <chunk>" frame per upstream chunk and a
// terminal "[DONE]" frame once the channel drains. A failed flush means the
// caller went away; the frame sequence simply ends there.
func writeSSEFrames(w *bufio.Writer, lines <-chan []byte) {
	for line := range lines {
		w.WriteString("data: ")
		w.Write(line)
		w.WriteString("\n\n")
		if err := w.Flush(); err != nil {
			return
		}
	}
	w.WriteString("data: [DONE]\n\n")
	w.Flush()
}

// relayChunks copies upstream bytes to the caller as they arrive, flushing
// per read so SSE frames are not held back by buffering.
func relayChunks(w *bufio.Writer, r io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if werr := w.Flush(); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
