package llm

import (
	"context"
	"fmt"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged message in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// ToolSchema describes a single function the model may be asked to call.
// Parameters is a JSON Schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a structured function invocation returned by the model.
type ToolCall struct {
	Name      string
	Arguments string // raw JSON
}

// Request contains an ordered conversation and an optional tool constraint.
// When Tool is set, the provider instructs the model to call exactly that
// function.
type Request struct {
	Turns       []Turn
	Tool        *ToolSchema
	MaxTokens   int
	Temperature float64
}

// Response contains generated text and/or a tool call payload.
type Response struct {
	Content    string
	ToolCall   *ToolCall
	TokensUsed int
}

// Client is the provider abstraction interface.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a provider by name.
func New(provider, model string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// SplitSystem separates the leading system turns from the rest of the
// conversation. Providers that take a dedicated system field use this.
func SplitSystem(turns []Turn) (system string, rest []Turn) {
	for i, t := range turns {
		if t.Role != RoleSystem {
			return system, turns[i:]
		}
		if system != "" {
			system += "\n\n"
		}
		system += t.Content
	}
	return system, nil
}
