package generation

import (
	"context"

	copilot "github.com/github/copilot-sdk/go"
)

//go:generate go tool mockgen -package generation -destination mock_copilot_test.go -source copilot_backend.go

// copilotChat is a Copilot session that answers one prompt.
type copilotChat interface {
	// Ask sends prompt, reports every session event to onEvent and returns once the
	// session is idle.
	Ask(ctx context.Context, prompt string, onEvent copilot.SessionEventHandler) error
}

// copilotBackend owns the Copilot CLI process.
type copilotBackend interface {
	Start(ctx context.Context) error
	// OpenChat creates a session for model with every tool request refused.
	OpenChat(ctx context.Context, model string) (copilotChat, error)
	Stop() error
}

func newSDKBackend(clientOptions *copilot.ClientOptions) copilotBackend {
	return &sdkBackend{client: copilot.NewClient(clientOptions)}
}

type sdkBackend struct {
	client *copilot.Client
}

func (b *sdkBackend) Start(ctx context.Context) error {
	return b.client.Start(ctx)
}

func (b *sdkBackend) OpenChat(ctx context.Context, model string) (copilotChat, error) {
	session, err := b.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               model,
		OnPermissionRequest: denyAllTools,
	})
	if err != nil {
		return nil, err
	}
	return sdkChat{session: session}, nil
}

func (b *sdkBackend) Stop() error {
	return b.client.Stop()
}

type sdkChat struct {
	session *copilot.Session
}

func (c sdkChat) Ask(ctx context.Context, prompt string, onEvent copilot.SessionEventHandler) error {
	unsubscribe := c.session.On(onEvent)
	defer unsubscribe()
	_, err := c.session.SendAndWait(ctx, copilot.MessageOptions{Prompt: prompt})
	return err
}

// denyAllTools refuses every tool request.
func denyAllTools(copilot.PermissionRequest, copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "denied-interactively-by-user"}, nil
}
