package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/modelgate/modelgate/pkg/llm"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

var _ = Describe("ToOllamaChat", func() {
	Context("when sampling parameters are absent", func() {
		It("applies the pinned defaults", func() {
			out := llm.ToOllamaChat(&llm.ChatRequest{Model: "llama3.1"})

			Expect(out.Options.Temperature).To(Equal(llm.DefaultTemperature))
			Expect(out.Options.TopP).To(Equal(llm.DefaultTopP))
		})

		It("omits num_predict entirely", func() {
			out := llm.ToOllamaChat(&llm.ChatRequest{Model: "llama3.1"})

			Expect(out.Options.NumPredict).To(BeNil())

			raw, err := json.Marshal(out)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).NotTo(ContainSubstring("num_predict"))
		})
	})

	Context("when sampling parameters are supplied", func() {
		It("carries them into the options object", func() {
			out := llm.ToOllamaChat(&llm.ChatRequest{
				Model:       "llama3.1",
				Temperature: floatPtr(0.2),
				TopP:        floatPtr(0.5),
				MaxTokens:   intPtr(64),
			})

			Expect(out.Options.Temperature).To(Equal(0.2))
			Expect(out.Options.TopP).To(Equal(0.5))
			Expect(out.Options.NumPredict).To(HaveValue(Equal(64)))
		})

		It("keeps an explicit zero temperature", func() {
			out := llm.ToOllamaChat(&llm.ChatRequest{
				Model:       "llama3.1",
				Temperature: floatPtr(0),
			})

			Expect(out.Options.Temperature).To(BeZero())
		})
	})

	It("passes messages through unchanged", func() {
		msgs := []llm.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		}
		out := llm.ToOllamaChat(&llm.ChatRequest{Model: "llama3.1", Messages: msgs})

		Expect(out.Messages).To(Equal(msgs))
	})

	It("forwards absent messages as an empty list", func() {
		out := llm.ToOllamaChat(&llm.ChatRequest{Model: "llama3.1"})

		Expect(out.Messages).NotTo(BeNil())
		Expect(out.Messages).To(BeEmpty())

		raw, err := json.Marshal(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`"messages":[]`))
	})

	It("carries the caller's stream flag", func() {
		Expect(llm.ToOllamaChat(&llm.ChatRequest{Stream: true}).Stream).To(BeTrue())
		Expect(llm.ToOllamaChat(&llm.ChatRequest{}).Stream).To(BeFalse())
	})

	It("nests sampling parameters under options on the wire", func() {
		raw, err := json.Marshal(llm.ToOllamaChat(&llm.ChatRequest{
			Model:     "llama3.1",
			Messages:  []llm.Message{{Role: "user", Content: "hi"}},
			MaxTokens: intPtr(8),
		}))
		Expect(err).NotTo(HaveOccurred())

		Expect(raw).To(MatchJSON(`{
			"model": "llama3.1",
			"messages": [{"role": "user", "content": "hi"}],
			"stream": false,
			"options": {"temperature": 0.7, "top_p": 0.95, "num_predict": 8}
		}`))
	})
})

var _ = Describe("FromOllamaChat", func() {
	It("wraps the upstream message as a single choice at index 0", func() {
		out := llm.FromOllamaChat("llama3.1", &llm.OllamaChatResponse{
			Message:    llm.Message{Role: "assistant", Content: "hello"},
			DoneReason: "stop",
		})

		Expect(out.Choices).To(HaveLen(1))
		Expect(out.Choices[0].Index).To(Equal(0))
		Expect(out.Choices[0].Message.Content).To(Equal("hello"))
	})

	It("produces the exact OpenAI completion shape", func() {
		out := llm.FromOllamaChat("llama3.1", &llm.OllamaChatResponse{
			Message:    llm.Message{Role: "assistant", Content: "hello"},
			DoneReason: "stop",
		})

		raw, err := json.Marshal(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(MatchJSON(`{
			"id": "chatcmpl-ollama",
			"object": "chat.completion",
			"model": "llama3.1",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "hello"},
				"finish_reason": "stop"
			}]
		}`))
	})

	It("defaults an empty message and done reason", func() {
		out := llm.FromOllamaChat("llama3.1", &llm.OllamaChatResponse{})

		Expect(out.Choices[0].Message.Role).To(Equal("assistant"))
		Expect(out.Choices[0].Message.Content).To(BeEmpty())
		Expect(out.Choices[0].FinishReason).To(Equal("stop"))
	})

	It("echoes the request model, not the upstream's", func() {
		out := llm.FromOllamaChat("alias", &llm.OllamaChatResponse{Model: "llama3.1:latest"})

		Expect(out.Model).To(Equal("alias"))
	})
})

var _ = Describe("FromOllamaTags", func() {
	It("maps installed models onto the OpenAI list shape", func() {
		out := llm.FromOllamaTags(&llm.OllamaTagsResponse{Models: []llm.OllamaModel{
			{Name: "llama3.1:latest"},
			{Name: "mistral:7b"},
		}})

		Expect(out.Object).To(Equal("list"))
		Expect(out.Data).To(HaveLen(2))
		Expect(out.Data[0]).To(Equal(llm.ModelInfo{ID: "llama3.1:latest", Object: "model", OwnedBy: "ollama"}))
	})

	It("renders an empty listing as an empty data array", func() {
		raw, err := json.Marshal(llm.FromOllamaTags(&llm.OllamaTagsResponse{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(MatchJSON(`{"object": "list", "data": []}`))
	})
})
