package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/contextutil"
)

// Reply is one assembled model answer.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
	// Done is true when the stream carried an explicit completion marker.
	Done bool
	// Skipped lists lines that were dropped during assembly.
	Skipped []*AssemblyError
}

// StreamDecoder reassembles a raw response body into a single Reply.
// Decoding never fails: malformed lines are recorded in Reply.Skipped.
type StreamDecoder interface {
	Decode(ctx context.Context, body []byte) Reply
}

// NewDecoder returns the decoder for the given dialect.
func NewDecoder(dialect Dialect) (StreamDecoder, error) {
	switch dialect {
	case DialectOllama:
		return NDJSONDecoder{}, nil
	case DialectOpenAI:
		return SSEDecoder{}, nil
	default:
		return nil, fmt.Errorf("no stream decoder for dialect %q", dialect)
	}
}

// NDJSONDecoder decodes Ollama newline-delimited JSON fragments.
// It accepts both chat fragments (message.content) and generate fragments (response).
type NDJSONDecoder struct{}

type ndjsonFragment struct {
	Message *struct {
		Content   string     `json:"content"`
		ToolCalls []ToolCall `json:"tool_calls"`
	} `json:"message"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Decode concatenates every fragment's content in arrival order.
func (NDJSONDecoder) Decode(ctx context.Context, body []byte) Reply {
	logger := contextutil.LoggerFromContext(ctx)

	var reply Reply
	var content strings.Builder
	for i, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var frag ndjsonFragment
		if err := json.Unmarshal([]byte(line), &frag); err != nil {
			reply.Skipped = append(reply.Skipped, skip(ctx, i+1, line, err))
			continue
		}
		if frag.Error != "" {
			logger.WarnContext(ctx, "server reported error in stream", "line", i+1, "error", frag.Error)
			reply.Skipped = append(reply.Skipped, &AssemblyError{Line: i + 1, Raw: preview(line), Err: fmt.Errorf("server error: %s", frag.Error)})
			continue
		}

		if frag.Message != nil {
			content.WriteString(frag.Message.Content)
			reply.ToolCalls = append(reply.ToolCalls, frag.Message.ToolCalls...)
		}
		content.WriteString(frag.Response)
		if frag.Done {
			reply.Done = true
		}
	}

	reply.Content = content.String()
	return reply
}

// SSEDecoder decodes OpenAI-compatible "data:" lines terminated by [DONE].
// A body holding one JSON object, on one line or many, is a non-streaming completion.
type SSEDecoder struct{}

const doneSentinel = "[DONE]"

type partialToolCall struct {
	id   string
	name string
	args strings.Builder
}

// Decode concatenates each chunk's delta.content; missing content counts as empty.
func (SSEDecoder) Decode(ctx context.Context, body []byte) Reply {
	var reply Reply
	var content strings.Builder

	var order []int
	partials := map[int]*partialToolCall{}
	partialAt := func(idx int) *partialToolCall {
		p, ok := partials[idx]
		if !ok {
			p = &partialToolCall{}
			partials[idx] = p
			order = append(order, idx)
		}
		return p
	}

	if trimmed := bytes.TrimSpace(body); isCompletionBody(trimmed) {
		var full openai.ChatCompletionResponse
		if err := json.Unmarshal(trimmed, &full); err == nil {
			return completionReply(ctx, full)
		}
	}

	for i, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "{") {
			var full openai.ChatCompletionResponse
			if err := json.Unmarshal([]byte(line), &full); err != nil {
				reply.Skipped = append(reply.Skipped, skip(ctx, i+1, line, err))
				continue
			}
			if len(full.Choices) > 0 {
				msg := full.Choices[0].Message
				content.WriteString(msg.Content)
				for j, tc := range msg.ToolCalls {
					p := partialAt(len(order) + j)
					p.id, p.name = tc.ID, tc.Function.Name
					p.args.WriteString(tc.Function.Arguments)
				}
			}
			reply.Done = true
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(field) != "data" {
			// event:, id:, retry: and ": comment" lines carry no content.
			continue
		}
		value = strings.TrimSpace(value)
		if value == doneSentinel {
			reply.Done = true
			break
		}

		var chunk openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(value), &chunk); err != nil {
			reply.Skipped = append(reply.Skipped, skip(ctx, i+1, line, err))
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		content.WriteString(delta.Content)
		for j, tc := range delta.ToolCalls {
			idx := j
			if tc.Index != nil {
				idx = *tc.Index
			}
			p := partialAt(idx)
			if tc.ID != "" {
				p.id = tc.ID
			}
			if tc.Function.Name != "" {
				p.name = tc.Function.Name
			}
			p.args.WriteString(tc.Function.Arguments)
		}
	}

	for _, idx := range order {
		p := partials[idx]
		args, err := decodeArgumentString(p.args.String())
		if err != nil {
			reply.Skipped = append(reply.Skipped, skip(ctx, 0, p.args.String(), err))
			args = map[string]any{}
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{ID: p.id, Name: p.name, Arguments: args})
	}

	reply.Content = content.String()
	return reply
}

// isCompletionBody reports whether body is a single JSON object rather than a data: stream.
func isCompletionBody(body []byte) bool {
	if !bytes.HasPrefix(body, []byte("{")) {
		return false
	}
	for line := range bytes.Lines(body) {
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("data:")) {
			return false
		}
	}
	return true
}

// completionReply converts a non-streamed completion, which may span many lines.
func completionReply(ctx context.Context, full openai.ChatCompletionResponse) Reply {
	reply := Reply{Done: true}
	if len(full.Choices) == 0 {
		return reply
	}
	msg := full.Choices[0].Message
	reply.Content = msg.Content
	for _, tc := range msg.ToolCalls {
		args, err := decodeArgumentString(tc.Function.Arguments)
		if err != nil {
			reply.Skipped = append(reply.Skipped, skip(ctx, 0, tc.Function.Arguments, err))
			args = map[string]any{}
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return reply
}

func skip(ctx context.Context, line int, raw string, err error) *AssemblyError {
	contextutil.LoggerFromContext(ctx).WarnContext(ctx, "skipping malformed stream line", "line", line, "raw", preview(raw), "error", err)
	return &AssemblyError{Line: line, Raw: preview(raw), Err: err}
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
