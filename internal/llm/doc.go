// Package llm implements the Client interface for each supported model
// provider.
//
// Supported providers: Anthropic (Claude), OpenAI (GPT), and Ollama /
// LMStudio for local models.
//
// A conversation is an ordered list of role-tagged turns. Requests may carry
// a single constrained tool schema; providers that support function calling
// (Anthropic, OpenAI) force the model to invoke exactly that tool, while
// Ollama rejects tool-constrained requests outright.
//
// All providers share a common retry helper with exponential back-off and
// rate-limit handling. Failures are typed so callers can distinguish auth
// errors from transient ones.
//
// Use [New] to obtain a Client by provider name and model string.
package llm
