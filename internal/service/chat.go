package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks ragchat/internal/service ChatTransport,Retriever,ToolDispatcher
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService ragchat/internal/service ChatService

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/contextutil"
	"ragchat/internal/llm"
	"ragchat/internal/persona"
	"ragchat/internal/render"
	"ragchat/internal/retrieval"
	"ragchat/internal/session"
	"ragchat/internal/vectorstore"
)

// ProblemPrefix starts every diagnostic reply.
const ProblemPrefix = "I encountered a problem: "

// ContextTemplate folds retrieved passages into the user message.
// The first verb is the context, the second the question.
const ContextTemplate = "Answer the question based only on the following context. " +
	"If the context does not contain the answer, say that you don't know.\n\n" +
	"Context:\n%s\n\nQuestion: %s"

var errRetrievalDisabled = errors.New("retrieval is not configured")

// ChatTransport sends a chat configuration and returns the raw response body.
type ChatTransport interface {
	Chat(ctx context.Context, cfg llm.ChatConfiguration) ([]byte, error)
}

// Retriever finds context for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question, model string) (retrieval.Result, error)
	Similar(ctx context.Context, text string, filter vectorstore.Filter) ([]retrieval.Document, error)
}

// ToolDispatcher runs a tool by name and returns its textual result.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]any) (string, error)
}

// AnswerRequest is one chat turn from the user.
type AnswerRequest struct {
	Message   string
	Expertise persona.Expertise
	Style     persona.Style
	// Model overrides the session default unless empty or "auto".
	Model        string
	UseRetrieval bool
}

// AssembledAnswer is the reply to an AnswerRequest. Failures are reported in
// Text as a diagnostic and in Error.
type AssembledAnswer struct {
	ID            string                `json:"id"`
	Text          string                `json:"text"`
	HTML          string                `json:"html"`
	Configuration llm.ChatConfiguration `json:"configuration"`
	Sources       []retrieval.Document  `json:"sources,omitempty"`
	ToolRounds    int                   `json:"tool_rounds"`
	Error         string                `json:"error,omitempty"`
}

// SimilarRequest asks for passages without answering.
type SimilarRequest struct {
	Question string
	Model    string
	// Source skips normalization and searches only this ingested file.
	Source string
}

// ChatService answers chat turns.
type ChatService interface {
	// Answer always produces a reply. The only error is a *ValidationError.
	Answer(ctx context.Context, req AnswerRequest) (AssembledAnswer, error)
	// Similar returns the retrieved context for a question.
	Similar(ctx context.Context, req SimilarRequest) (retrieval.Result, error)
}

// Options bounds the orchestrator.
type Options struct {
	// MaxToolIterations caps chat round-trips caused by tool calls. Zero disables tools.
	MaxToolIterations int
	// ToolTimeout bounds each tool execution.
	ToolTimeout time.Duration
	// RetrievalFallback answers without context when retrieval fails instead of reporting the failure.
	RetrievalFallback bool
}

// Deps are the collaborators of the chat service. Retriever and Tools may be nil.
type Deps struct {
	Builder   *persona.Builder
	Transport ChatTransport
	Decoder   llm.StreamDecoder
	Tools     ToolDispatcher
	Retriever Retriever
	Renderer  *render.Renderer
	Session   *session.Session
}

// chatService implements ChatService.
type chatService struct {
	deps  Deps
	opts  Options
	newID func() string
}

// NewChatService creates a new ChatService.
func NewChatService(deps Deps, opts Options) ChatService {
	return &chatService{deps: deps, opts: opts, newID: uuid.NewString}
}

// Answer builds the configuration, optionally adds retrieved context, runs the
// chat and tool loop, and renders the reply.
func (s *chatService) Answer(ctx context.Context, req AnswerRequest) (AssembledAnswer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Message) == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return AssembledAnswer{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}

	snap := s.deps.Session.Snapshot()
	if snap.Token != "" {
		ctx = contextutil.WithToken(ctx, snap.Token)
	}
	answer := AssembledAnswer{ID: s.newID()}

	cfg, err := s.deps.Builder.Build(persona.Choice{
		Expertise: req.Expertise,
		Style:     req.Style,
		Message:   req.Message,
		Model:     req.Model,
	}, snap.DefaultModel)
	if err != nil {
		return s.problem(ctx, answer, &ValidationError{Field: "model", Message: err.Error()}), nil
	}
	answer.Configuration = cfg

	if req.UseRetrieval {
		cfg, answer.Sources, err = s.withContext(ctx, cfg, req.Message)
		if err != nil {
			return s.problem(ctx, answer, err), nil
		}
		answer.Configuration = cfg
	}

	text, rounds, err := s.converse(ctx, cfg)
	answer.ToolRounds = rounds
	if err != nil {
		return s.problem(ctx, answer, err), nil
	}

	answer.Text = text
	answer.HTML = s.renderHTML(ctx, text)
	logger.InfoContext(ctx, "chat request processed successfully",
		"answer_id", answer.ID, "model", cfg.Model, "message_length", len(req.Message),
		"reply_length", len(text), "tool_rounds", rounds, "sources", len(answer.Sources))
	return answer, nil
}

// withContext replaces the user message with the retrieval template.
func (s *chatService) withContext(ctx context.Context, cfg llm.ChatConfiguration, question string) (llm.ChatConfiguration, []retrieval.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if s.deps.Retriever == nil {
		return cfg, nil, externalError(errRetrievalDisabled, "failed to retrieve context")
	}

	res, err := s.deps.Retriever.Retrieve(ctx, question, cfg.Model)
	if err != nil {
		if s.opts.RetrievalFallback {
			logger.WarnContext(ctx, "retrieval failed, answering without context", "error", err)
			return cfg, nil, nil
		}
		return cfg, nil, externalError(err, "failed to retrieve context")
	}

	cfg.Messages = slices.Clone(cfg.Messages)
	cfg.Messages[len(cfg.Messages)-1].Content = fmt.Sprintf(ContextTemplate, res.Context, question)
	return cfg, res.Documents, nil
}

// converse runs chat round-trips until the model stops requesting tools.
func (s *chatService) converse(ctx context.Context, cfg llm.ChatConfiguration) (string, int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	limit := s.opts.MaxToolIterations
	if s.deps.Tools == nil {
		limit = 0
	}
	if limit == 0 {
		cfg.Tools = nil
		cfg.ToolChoice = ""
	}

	rounds := 0
	for {
		raw, err := s.deps.Transport.Chat(ctx, cfg)
		if err != nil {
			logger.ErrorContext(ctx, "failed to get LLM response", "error", err, "round", rounds)
			return "", rounds, externalError(err, "failed to get LLM response")
		}

		reply := s.deps.Decoder.Decode(ctx, raw)
		if len(reply.Skipped) > 0 {
			logger.WarnContext(ctx, "response had malformed fragments", "skipped", len(reply.Skipped))
		}
		if len(reply.ToolCalls) == 0 {
			return reply.Content, rounds, nil
		}

		if rounds >= limit {
			logger.WarnContext(ctx, "tool call limit reached", "limit", limit)
			return "", rounds, fmt.Errorf("%w after %d rounds", ErrToolLoopExceeded, rounds)
		}
		rounds++

		turns := []llm.Message{{
			Role:      llm.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		}}
		results := make(map[string]string, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			key := callKey(call)
			out, ran := results[key]
			if !ran {
				out = s.runTool(ctx, call)
				results[key] = out
			}
			turns = append(turns, llm.Message{
				Role:       llm.RoleTool,
				Content:    out,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
		cfg = cfg.WithMessages(turns...)
	}
}

// runTool dispatches one call. Every failure becomes result text.
func (s *chatService) runTool(ctx context.Context, call llm.ToolCall) string {
	if s.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ToolTimeout)
		defer cancel()
	}

	out, err := s.deps.Tools.Dispatch(ctx, call.Name, call.Arguments)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "tool dispatch failed", "tool", call.Name, "error", err)
		return err.Error()
	}
	return out
}

// callKey identifies repeated requests for the same tool with the same arguments.
// Each distinct call runs once; every call ID still gets a tool turn.
func callKey(c llm.ToolCall) string {
	return c.Name + "\x00" + fmt.Sprint(c.Arguments)
}

func (s *chatService) renderHTML(ctx context.Context, text string) string {
	out, err := s.deps.Renderer.HTML(text)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to render reply, falling back to escaped text", "error", err)
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return out
}

// problem turns a failure into a user-facing reply.
func (s *chatService) problem(ctx context.Context, answer AssembledAnswer, err error) AssembledAnswer {
	contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "chat request failed", "answer_id", answer.ID, "error", err)
	answer.Error = err.Error()
	answer.Text = ProblemPrefix + err.Error()
	answer.HTML = "<p>" + html.EscapeString(answer.Text) + "</p>"
	return answer
}

// Similar returns the context retrieval would add for a question.
func (s *chatService) Similar(ctx context.Context, req SimilarRequest) (retrieval.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in similarity request")
		return retrieval.Result{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	if s.deps.Retriever == nil {
		return retrieval.Result{}, externalError(errRetrievalDisabled, "failed to retrieve context")
	}

	snap := s.deps.Session.Snapshot()
	if snap.Token != "" {
		ctx = contextutil.WithToken(ctx, snap.Token)
	}

	if req.Source != "" {
		docs, err := s.deps.Retriever.Similar(ctx, req.Question, vectorstore.Filter{Source: req.Source})
		if err != nil {
			return retrieval.Result{}, externalError(err, "failed to search similar passages")
		}
		contents := make([]string, 0, len(docs))
		for _, d := range docs {
			contents = append(contents, d.Content)
		}
		return retrieval.Result{Query: req.Question, Documents: docs, Context: strings.Join(contents, "\n\n")}, nil
	}

	res, err := s.deps.Retriever.Retrieve(ctx, req.Question, persona.ResolveModel(req.Model, snap.DefaultModel))
	if err != nil {
		return retrieval.Result{}, externalError(err, "failed to retrieve context")
	}
	logger.InfoContext(ctx, "similarity request processed", "documents", len(res.Documents))
	return res, nil
}
