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
	geminiAPIBase          = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel     = "gemini-3-flash"
	geminiEmbedModel       = "text-embedding-004"
)

// GeminiProvider is a generate-content-style adapter: the system prompt
// moves to a separate field and tool calls arrive as typed parts rather
// than text fragments.
type GeminiProvider struct {
	apiKey string
	model  string
}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{apiKey: apiKey, model: model}
}

func (p *GeminiProvider) Name() string { return "gemini" }

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string                  `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResp *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFunctionResponse struct {
	Name     string `json:"name"`
	Response any    `json:"response"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations,omitempty"`
}

type geminiFunctionDecl struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	SystemInstrucion *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools            []geminiTool            `json:"tools,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

func (p *GeminiProvider) convertMessages(msgs []Message) []geminiContent {
	var contents []geminiContent
	for _, msg := range msgs {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}

		var parts []geminiPart
		if msg.Content != "" {
			parts = append(parts, geminiPart{Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			var args map[string]any
			json.Unmarshal(call.Arguments, &args)
			parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: call.Name, Args: args}})
		}
		for _, result := range msg.ToolResults {
			name := result.ToolCallID
			if strings.HasPrefix(name, "call_") {
				if segs := strings.Split(name, "_"); len(segs) >= 2 {
					name = segs[len(segs)-1]
				}
			}
			parts = append(parts, geminiPart{FunctionResp: &geminiFunctionResponse{Name: name, Response: result.Content}})
		}
		if len(parts) > 0 {
			contents = append(contents, geminiContent{Role: role, Parts: parts})
		}
	}
	return contents
}

func (p *GeminiProvider) convertTools(tools []ToolSpec) []geminiTool {
	decls := make([]geminiFunctionDecl, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, geminiFunctionDecl{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	if len(decls) == 0 {
		return nil
	}
	return []geminiTool{{FunctionDeclarations: decls}}
}

func (p *GeminiProvider) ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error) {
	gemReq := geminiRequest{
		Contents: p.convertMessages(req.Messages),
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
		Tools: p.convertTools(req.Tools),
	}
	if req.System != "" {
		gemReq.SystemInstrucion = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	body, err := json.Marshal(gemReq)
	if err != nil {
		return nil, errs.Provider("marshal request", err, false)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", geminiAPIBase, p.model, p.apiKey)
	resp, err := doRequest(ctx, http.MethodPost, url, map[string]string{"Content-Type": "application/json"}, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, errs.Provider(fmt.Sprintf("gemini API error %d: %s", resp.StatusCode, respBody), nil, resp.StatusCode >= 500)
	}

	events := make(chan StreamEvent)
	go func() {
		defer resp.Body.Close()
		defer close(events)
		p.processStream(ctx, resp.Body, events)
	}()
	return events, nil
}

func (p *GeminiProvider) processStream(ctx context.Context, body io.Reader, events chan<- StreamEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

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
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "" {
			continue
		}

		var resp geminiResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			continue
		}

		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					if !emit(TokenEvent(part.Text)) {
						return
					}
				}
				if part.FunctionCall != nil {
					argsJSON, _ := json.Marshal(part.FunctionCall.Args)
					call := Call{
						ID:        fmt.Sprintf("call_%s", part.FunctionCall.Name),
						Type:      "function",
						Name:      part.FunctionCall.Name,
						Arguments: argsJSON,
					}
					if !emit(ToolCallEvent([]Call{call})) {
						return
					}
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		emit(ErrorEvent(err.Error()))
		return
	}
	emit(DoneEvent())
}

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
	Model   string        `json:"model,omitempty"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if len(texts) == 1 {
		body, _ := json.Marshal(geminiEmbedRequest{Content: geminiContent{Parts: []geminiPart{{Text: texts[0]}}}})
		url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", geminiAPIBase, geminiEmbedModel, p.apiKey)

		resp, err := doRequest(ctx, http.MethodPost, url, map[string]string{"Content-Type": "application/json"}, body)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return nil, errs.Provider(fmt.Sprintf("gemini embed error %d: %s", resp.StatusCode, respBody), nil, resp.StatusCode >= 500)
		}

		var out geminiEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, errs.Parse("decode embed response", err)
		}
		return [][]float32{out.Embedding.Values}, nil
	}

	batchReq := geminiBatchEmbedRequest{}
	for _, text := range texts {
		batchReq.Requests = append(batchReq.Requests, geminiEmbedRequest{
			Model:   "models/" + geminiEmbedModel,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	body, _ := json.Marshal(batchReq)
	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", geminiAPIBase, geminiEmbedModel, p.apiKey)
	resp, err := doRequest(ctx, http.MethodPost, url, map[string]string{"Content-Type": "application/json"}, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, errs.Provider(fmt.Sprintf("gemini batch embed error %d: %s", resp.StatusCode, respBody), nil, resp.StatusCode >= 500)
	}

	var out geminiBatchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errs.Parse("decode batch embed response", err)
	}
	result := make([][]float32, len(out.Embeddings))
	for i, e := range out.Embeddings {
		result[i] = e.Values
	}
	return result, nil
}
