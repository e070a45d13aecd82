// Package llm holds the wire types for the two chat dialects the gateway
// translates between: the OpenAI chat-completions shape spoken by callers
// and Ollama's native chat shape spoken by the upstream, plus the
// conversions from one to the other.
package llm

// Message is a single message in a conversation. The {role, content} pair
// is compatible with both dialects, so messages pass through translation
// unchanged.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}
