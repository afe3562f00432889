package ai

import "time"

/*
	##### ADAPTER INPUT #####
*/

// Request is the uniform chat request handed to every adapter. The dispatcher
// builds it from the retained session history; adapters translate it into
// their provider's wire format.
type Request struct {
	Model  string           `json:"model,omitempty"` // Provider-side model name or identifier
	Turns  []Turn           `json:"turns"`           // Ordered conversation history, oldest first, ending with the user turn to answer
	Config GenerationConfig `json:"config,omitempty"`
}

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// GenerationConfig carries the recognized generation options. Adapters apply
// what their provider supports and ignore the rest.
type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`  // Cap on response tokens
	Temperature float32  `json:"temperature,omitempty"` // Sampling temperature [0..2]. Higher => more random; lower => more deterministic.
	Modality    Modality `json:"modality,omitempty"`    // Expected output modality (text or image)
}

/*
	##### ADAPTER OUTPUT #####
*/

// Usage reports token consumption for a completed call. Image providers that
// do not meter tokens report byte counts in CompletionTokens instead.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

/*
	##### ENUMS #####
*/

// Role identifies the author of a Turn; compatible with string.
type Role string

const (
	RoleSystem    Role = "system"    // System instructions/configuration
	RoleUser      Role = "user"      // End-user message
	RoleAssistant Role = "assistant" // Model response
)

// Modality identifies what kind of content a model produces.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image" // Success content is a URL or data reference
)
