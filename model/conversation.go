package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the in-memory oracle transcript. Never persisted.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
