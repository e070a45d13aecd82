package llm

// OllamaOptions nests the sampling parameters Ollama expects under the
// request's "options" object.
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  *int    `json:"num_predict,omitempty"` // Max tokens to generate
}

// OllamaChatRequest is the native /api/chat request body.
type OllamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  OllamaOptions `json:"options"`
}

// OllamaChatResponse is the native unary /api/chat response. Streaming
// chunks share this shape but are relayed as raw lines, so only the unary
// path decodes it.
type OllamaChatResponse struct {
	Model      string  `json:"model"`
	CreatedAt  string  `json:"created_at,omitempty"`
	Message    Message `json:"message"`
	Done       bool    `json:"done,omitempty"`
	DoneReason string  `json:"done_reason,omitempty"`
}

// OllamaTagsResponse is the native /api/tags model listing.
type OllamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// OllamaModel is one installed model in a tags listing.
type OllamaModel struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}
