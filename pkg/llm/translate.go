package llm

// Sampling defaults applied when the caller omits a parameter. Ollama has
// its own defaults, but the gateway has always pinned these so behavior
// does not shift under it when the upstream changes.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 0.95
)

// ToOllamaChat maps an OpenAI-style chat request onto Ollama's native
// /api/chat body. Messages pass through untouched; sampling parameters nest
// under "options", and max_tokens becomes num_predict only when the caller
// supplied it. No validation happens here: malformed roles or content are
// forwarded as-is and rejection is the upstream's call.
func ToOllamaChat(req *ChatRequest) *OllamaChatRequest {
	out := &OllamaChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   req.Stream,
		Options: OllamaOptions{
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
		},
	}
	if out.Messages == nil {
		// an absent messages field still forwards as an empty list
		out.Messages = []Message{}
	}
	if req.Temperature != nil {
		out.Options.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		out.Options.TopP = *req.TopP
	}
	if req.MaxTokens != nil {
		n := *req.MaxTokens
		out.Options.NumPredict = &n
	}
	return out
}

// FromOllamaChat wraps Ollama's unary chat response in the OpenAI
// chat-completion shape. The model is echoed from the caller's request, and
// there is always exactly one choice at index 0.
func FromOllamaChat(model string, resp *OllamaChatResponse) *ChatResponse {
	role := resp.Message.Role
	if role == "" {
		role = "assistant"
	}
	reason := resp.DoneReason
	if reason == "" {
		reason = "stop"
	}
	return &ChatResponse{
		ID:     "chatcmpl-ollama",
		Object: "chat.completion",
		Model:  model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: role, Content: resp.Message.Content},
			FinishReason: reason,
		}},
	}
}

// FromOllamaTags maps a native /api/tags listing onto the OpenAI model
// list shape.
func FromOllamaTags(tags *OllamaTagsResponse) *ModelList {
	out := &ModelList{Object: "list", Data: []ModelInfo{}}
	for _, m := range tags.Models {
		out.Data = append(out.Data, ModelInfo{ID: m.Name, Object: "model", OwnedBy: "ollama"})
	}
	return out
}
