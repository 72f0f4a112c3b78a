package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// CopilotEngine sends each prompt in a fresh GitHub Copilot session.
type CopilotEngine struct {
	modelID string
	backend copilotBackend

	startOnce sync.Once
	startErr  error
}

// CopilotEngineOptions replaces how the engine reaches the Copilot CLI.
type CopilotEngineOptions struct {
	NewBackend func(clientOptions *copilot.ClientOptions) copilotBackend
}

// NewCopilotEngine creates the engine. modelID can be blank, in which case the copilot
// CLI picks its own default.
func NewCopilotEngine(modelID string, options *CopilotEngineOptions) *CopilotEngine {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	newBackend := newSDKBackend
	if options != nil && options.NewBackend != nil {
		newBackend = options.NewBackend
	}
	return &CopilotEngine{modelID: modelID, backend: newBackend(copilotOptions)}
}

func (e *CopilotEngine) Initialize(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (e *CopilotEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil req was passed to CopilotEngine.Generate")
	}

	e.startOnce.Do(func() {
		// autostart misbehaves when triggered from several goroutines, so start once here.
		e.startErr = e.backend.Start(ctx)
	})
	if e.startErr != nil {
		return nil, providerErr("copilot", e.modelID, fmt.Errorf("copilot failed to start: %w", e.startErr))
	}

	start := time.Now()
	chat, err := e.backend.OpenChat(ctx, e.modelID)
	if err != nil {
		return nil, providerErr("copilot", e.modelID, fmt.Errorf("failed to create session: %w", err))
	}

	collector := newMessageCollector()
	if err := chat.Ask(ctx, req.Prompt, collector.On); err != nil {
		return nil, providerErr("copilot", e.modelID, err)
	}
	if msg := collector.ErrorMessage(); msg != "" {
		return nil, providerErr("copilot", e.modelID, fmt.Errorf("%s", msg))
	}

	text, err := checkText("copilot", e.modelID, collector.Text())
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, ModelID: e.modelID, DurationMs: time.Since(start).Milliseconds()}, nil
}

func (e *CopilotEngine) Shutdown(context.Context) error {
	return e.backend.Stop()
}

const sessionFailedUnknown = "session failed with unknown error"

// messageCollector gathers the assistant's final message text from session events.
type messageCollector struct {
	mu       sync.Mutex
	messages []string
	errorMsg string
}

func newMessageCollector() *messageCollector {
	return &messageCollector{}
}

// On is a callback, intended to be passed to [copilot.Session.On].
func (c *messageCollector) On(event copilot.SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case copilot.AssistantMessage:
		if event.Data.Content != nil {
			c.messages = append(c.messages, *event.Data.Content)
		}
	case copilot.SessionError:
		if event.Data.Message == nil || *event.Data.Message == "" {
			c.errorMsg = sessionFailedUnknown
		} else {
			c.errorMsg = *event.Data.Message
		}
	}
}

func (c *messageCollector) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.messages, "\n")
}

func (c *messageCollector) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorMsg
}
