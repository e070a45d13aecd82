package llm

// ErrorResponse is the gateway's own error body. Upstream error bodies are
// relayed verbatim and never rewritten into this shape.
type ErrorResponse struct {
	Error string `json:"error"`
}
