package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// WelcomeMessageID is the fixed id of the greeting that opens every conversation
const WelcomeMessageID = "init"

// ChatMessage represents one entry of a conversation
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Options   []string  `json:"options,omitempty"`
}

// Conversation is the state of one chat widget instance.
// At most one lesson can be awaiting a yes/no confirmation at a time.
type Conversation struct {
	ID              uuid.UUID     `json:"id"`
	Lang            string        `json:"lang"`
	Messages        []ChatMessage `json:"messages"`
	PendingLessonID *int          `json:"pending_lesson_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewConversation creates an empty conversation
func NewConversation(lang string, now time.Time) *Conversation {
	return &Conversation{
		ID:        uuid.New(),
		Lang:      lang,
		Messages:  []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message and bumps the activity timestamp
func (c *Conversation) Append(msg ChatMessage) {
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.UpdatedAt) {
		c.UpdatedAt = msg.Timestamp
	}
}

// Recent returns up to n of the latest messages, oldest first
func (c *Conversation) Recent(n int) []ChatMessage {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]ChatMessage, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// Pending reports the lesson awaiting confirmation, if any
func (c *Conversation) Pending() (int, bool) {
	if c.PendingLessonID == nil {
		return 0, false
	}
	return *c.PendingLessonID, true
}

// SetPending marks a lesson as awaiting confirmation
func (c *Conversation) SetPending(lessonID int) {
	id := lessonID
	c.PendingLessonID = &id
}

// ClearPending drops any pending confirmation
func (c *Conversation) ClearPending() {
	c.PendingLessonID = nil
}

// Clone returns a deep copy of the conversation
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]ChatMessage, len(c.Messages))
	for i, msg := range c.Messages {
		if msg.Options != nil {
			msg.Options = append([]string(nil), msg.Options...)
		}
		out.Messages[i] = msg
	}
	if c.PendingLessonID != nil {
		id := *c.PendingLessonID
		out.PendingLessonID = &id
	}
	return &out
}
