package conversations

import "errors"

var (
	// ErrConversationNotFound is returned when a conversation lookup misses
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidRole is returned for roles outside user/assistant
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent is returned when a message has no content
	ErrEmptyContent = errors.New("message content is required")

	// ErrMissingConversation is returned when the conversation id is absent
	ErrMissingConversation = errors.New("conversation id is required")
)
