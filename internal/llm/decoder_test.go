package llm

import (
	"context"
	"testing"
)

func TestNewDecoder(t *testing.T) {
	if d, err := NewDecoder(DialectOllama); err != nil {
		t.Errorf("NewDecoder(ollama) error = %v", err)
	} else if _, ok := d.(NDJSONDecoder); !ok {
		t.Errorf("NewDecoder(ollama) = %T, want NDJSONDecoder", d)
	}
	if d, err := NewDecoder(DialectOpenAI); err != nil {
		t.Errorf("NewDecoder(openai) error = %v", err)
	} else if _, ok := d.(SSEDecoder); !ok {
		t.Errorf("NewDecoder(openai) = %T, want SSEDecoder", d)
	}
	if _, err := NewDecoder("smoke-signals"); err == nil {
		t.Error("NewDecoder(unknown) should fail")
	}
}

func TestNDJSONDecoder_Decode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        string
		wantDone    bool
		wantSkipped int
		wantTools   int
	}{
		{
			name:     "concatenates fragments in order",
			body:     `{"message":{"content":"Hel"},"done":false}` + "\n" + `{"message":{"content":"lo"},"done":true}` + "\n",
			want:     "Hello",
			wantDone: true,
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
		{
			name:     "blank lines dropped",
			body:     "\n\n" + `{"message":{"content":"a"}}` + "\n\r\n" + `{"message":{"content":"b"},"done":true}`,
			want:     "ab",
			wantDone: true,
		},
		{
			name:        "malformed line skipped",
			body:        `{"message":{"content":"one "}}` + "\n" + `{"message":{"cont` + "\n" + `{"message":{"content":"two"},"done":true}`,
			want:        "one two",
			wantDone:    true,
			wantSkipped: 1,
		},
		{
			name:     "non-streamed single object",
			body:     `{"model":"llama3.1","message":{"role":"assistant","content":"whole answer"},"done":true}`,
			want:     "whole answer",
			wantDone: true,
		},
		{
			name:     "generate fragments",
			body:     `{"response":"stand"}` + "\n" + `{"response":"alone","done":true}`,
			want:     "standalone",
			wantDone: true,
		},
		{
			name:        "server error fragment",
			body:        `{"message":{"content":"partial"}}` + "\n" + `{"error":"model crashed"}`,
			want:        "partial",
			wantSkipped: 1,
		},
		{
			name:      "tool calls collected",
			body:      `{"message":{"content":"","tool_calls":[{"function":{"name":"cmd","arguments":{"command":"date"}}}]},"done":true}`,
			want:      "",
			wantDone:  true,
			wantTools: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := NDJSONDecoder{}.Decode(context.Background(), []byte(tt.body))
			if reply.Content != tt.want {
				t.Errorf("Content = %q, want %q", reply.Content, tt.want)
			}
			if reply.Done != tt.wantDone {
				t.Errorf("Done = %v, want %v", reply.Done, tt.wantDone)
			}
			if len(reply.Skipped) != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", len(reply.Skipped), tt.wantSkipped)
			}
			if len(reply.ToolCalls) != tt.wantTools {
				t.Errorf("ToolCalls = %d, want %d", len(reply.ToolCalls), tt.wantTools)
			}
		})
	}
}

func TestNDJSONDecoder_ToolCallArguments(t *testing.T) {
	body := `{"message":{"tool_calls":[{"function":{"name":"sql","arguments":{"sqlscript":"select 1"}}}]},"done":true}`
	reply := NDJSONDecoder{}.Decode(context.Background(), []byte(body))
	if len(reply.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %d, want 1", len(reply.ToolCalls))
	}
	tc := reply.ToolCalls[0]
	if tc.Name != "sql" || tc.Arguments["sqlscript"] != "select 1" {
		t.Errorf("ToolCall = %+v", tc)
	}
}

func TestSSEDecoder_Decode(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		want        string
		wantDone    bool
		wantSkipped int
	}{
		{
			name: "concatenates deltas until sentinel",
			body: "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
				"data: [DONE]\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n",
			want:     "Hello",
			wantDone: true,
		},
		{
			name:     "missing delta content is empty",
			body:     "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\ndata: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\ndata: [DONE]",
			want:     "x",
			wantDone: true,
		},
		{
			name: "non-data fields ignored",
			body: ": keep-alive\nevent: message\nid: 7\ndata: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n",
			want: "ok",
		},
		{
			name:        "malformed chunk skipped",
			body:        "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\ndata: {bad\ndata: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\ndata: [DONE]",
			want:        "ab",
			wantDone:    true,
			wantSkipped: 1,
		},
		{
			name:     "data without space",
			body:     "data:{\"choices\":[{\"delta\":{\"content\":\"tight\"}}]}\ndata:[DONE]",
			want:     "tight",
			wantDone: true,
		},
		{
			name:     "non-streamed completion",
			body:     `{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"whole"}}]}`,
			want:     "whole",
			wantDone: true,
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
		{
			name:     "chunk with no choices",
			body:     "data: {\"choices\":[]}\ndata: [DONE]",
			want:     "",
			wantDone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := SSEDecoder{}.Decode(context.Background(), []byte(tt.body))
			if reply.Content != tt.want {
				t.Errorf("Content = %q, want %q", reply.Content, tt.want)
			}
			if reply.Done != tt.wantDone {
				t.Errorf("Done = %v, want %v", reply.Done, tt.wantDone)
			}
			if len(reply.Skipped) != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", len(reply.Skipped), tt.wantSkipped)
			}
		})
	}
}

func TestSSEDecoder_IndentedCompletion(t *testing.T) {
	body := `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "choices": [
    {
      "index": 0,
      "message": {
        "role": "assistant",
        "content": "Hello there",
        "tool_calls": [
          {
            "id": "call_1",
            "type": "function",
            "function": {"name": "cmd", "arguments": "{\"command\":\"date\"}"}
          }
        ]
      },
      "finish_reason": "tool_calls"
    }
  ]
}
`
	reply := SSEDecoder{}.Decode(context.Background(), []byte(body))
	if reply.Content != "Hello there" {
		t.Errorf("Content = %q, want %q", reply.Content, "Hello there")
	}
	if !reply.Done {
		t.Error("Done = false, want true")
	}
	if len(reply.Skipped) != 0 {
		t.Errorf("Skipped = %d, want 0", len(reply.Skipped))
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].ID != "call_1" || reply.ToolCalls[0].Arguments["command"] != "date" {
		t.Errorf("ToolCalls = %+v", reply.ToolCalls)
	}
}

func TestSSEDecoder_ToolCallFragments(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_a\",\"type\":\"function\",\"function\":{\"name\":\"cmd\",\"arguments\":\"\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"{\\\"comm\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"and\\\":\\\"ls\\\"}\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":1,\"id\":\"call_b\",\"function\":{\"name\":\"sql\",\"arguments\":\"{\\\"sqlscript\\\":\\\"select 1\\\"}\"}}]}}]}\n" +
		"data: [DONE]\n"

	reply := SSEDecoder{}.Decode(context.Background(), []byte(body))
	if len(reply.Skipped) != 0 {
		t.Fatalf("Skipped = %v", reply.Skipped)
	}
	if len(reply.ToolCalls) != 2 {
		t.Fatalf("ToolCalls = %d, want 2", len(reply.ToolCalls))
	}
	first, second := reply.ToolCalls[0], reply.ToolCalls[1]
	if first.ID != "call_a" || first.Name != "cmd" || first.Arguments["command"] != "ls" {
		t.Errorf("first call = %+v", first)
	}
	if second.ID != "call_b" || second.Name != "sql" || second.Arguments["sqlscript"] != "select 1" {
		t.Errorf("second call = %+v", second)
	}
}

func TestSSEDecoder_BrokenToolArguments(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"name\":\"cmd\",\"arguments\":\"{not json\"}}]}}]}\ndata: [DONE]"
	reply := SSEDecoder{}.Decode(context.Background(), []byte(body))
	if len(reply.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %d, want 1", len(reply.ToolCalls))
	}
	if len(reply.ToolCalls[0].Arguments) != 0 {
		t.Errorf("Arguments = %v, want empty", reply.ToolCalls[0].Arguments)
	}
	if len(reply.Skipped) != 1 {
		t.Errorf("Skipped = %d, want 1", len(reply.Skipped))
	}
}
