package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// AnthropicProvider is a chat-completions-style SSE adapter.
type AnthropicProvider struct {
	apiKey string
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicProvider{apiKey: apiKey, model: model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errs.Provider("anthropic does not support native embeddings", nil, false)
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Stream    bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func (p *AnthropicProvider) buildRequest(req ChatRequest, stream bool) *anthropicRequest {
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			continue
		}
		if len(msg.ToolResults) > 0 {
			blocks := make([]anthropicContentBlock, 0, len(msg.ToolResults))
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, anthropicContentBlock{
					Type: "tool_result", ToolUseID: tr.ToolCallID, Content: tr.Content, IsError: tr.IsError,
				})
			}
			messages = append(messages, anthropicMessage{Role: "user", Content: blocks})
			continue
		}
		if len(msg.ToolCalls) > 0 {
			blocks := make([]anthropicContentBlock, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, c := range msg.ToolCalls {
				blocks = append(blocks, anthropicContentBlock{Type: "tool_use", ID: c.ID, Name: c.Name, Input: c.Arguments})
			}
			messages = append(messages, anthropicMessage{Role: string(msg.Role), Content: blocks})
			continue
		}
		messages = append(messages, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	tools := make([]anthropicTool, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}

	return &anthropicRequest{
		Model: p.model, MaxTokens: maxTokens, Messages: messages, System: req.System, Tools: tools, Stream: stream,
	}
}

func (p *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicAPIVersion,
	}
}

// ChatStream streams a completion and returns a channel of StreamEvents
// in arrival order. The channel is closed once a terminal Done or Error
// event has been sent, or the context is cancelled.
func (p *AnthropicProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	body, err := json.Marshal(p.buildRequest(req, true))
	if err != nil {
		return nil, errs.Provider("marshal request", err, false)
	}

	resp, err := doRequest(ctx, http.MethodPost, anthropicAPIURL, p.headers(), body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errs.Provider(fmt.Sprintf("anthropic API error %d: %s", resp.StatusCode, respBody), nil, resp.StatusCode >= 500)
	}

	events := make(chan StreamEvent)
	go func() {
		defer resp.Body.Close()
		defer close(events)
		p.processStream(ctx, resp.Body, events)
	}()
	return events, nil
}

type anthropicStreamEvent struct {
	Type         string                 `json:"type"`
	Delta        json.RawMessage        `json:"delta,omitempty"`
	ContentBlock *anthropicContentBlock `json:"content_block,omitempty"`
}

// processStream scans Anthropic's SSE body, buffering partial tool-call
// arguments (input_json_delta fragments) until content_block_stop makes
// the call complete, per the streaming contract's "buffer until whole"
// rule.
func (p *AnthropicProvider) processStream(ctx context.Context, body io.Reader, events chan<- StreamEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentCall *Call
	var inputBuffer strings.Builder

	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			emit(ErrorEvent("cancelled"))
			return
		}

		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			emit(DoneEvent())
			return
		}

		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_start":
			if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
				currentCall = &Call{ID: event.ContentBlock.ID, Type: "function", Name: event.ContentBlock.Name}
				inputBuffer.Reset()
			}
		case "content_block_delta":
			var delta struct {
				Type        string `json:"type"`
				Text        string `json:"text,omitempty"`
				PartialJSON string `json:"partial_json,omitempty"`
			}
			if err := json.Unmarshal(event.Delta, &delta); err == nil {
				switch delta.Type {
				case "text_delta":
					if delta.Text != "" && !emit(TokenEvent(delta.Text)) {
						return
					}
				case "input_json_delta":
					inputBuffer.WriteString(delta.PartialJSON)
				}
			}
		case "content_block_stop":
			if currentCall != nil {
				currentCall.Arguments = json.RawMessage(inputBuffer.String())
				if !emit(ToolCallEvent([]Call{*currentCall})) {
					return
				}
				currentCall = nil
			}
		case "message_stop":
			emit(DoneEvent())
			return
		}
	}

	if err := scanner.Err(); err != nil {
		emit(ErrorEvent(err.Error()))
		return
	}
	emit(DoneEvent())
}
