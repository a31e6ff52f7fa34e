package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trafficsafe-backend/models"

	"github.com/google/uuid"
)

const (
	msgAskYesNo      = "Vui lòng chọn 'Có' hoặc 'Không'."
	msgDeclined      = "Cảm ơn bạn. Bạn có muốn chọn chủ đề khác không?"
	msgMissingLesson = "Đã có lỗi xảy ra."
	msgEmptyInput    = "Vui lòng nhập câu hỏi."
	msgConfirmLesson = "Bạn muốn tra cứu nội dung về \"%s\" đúng không?"
)

var (
	// ConfirmOptions are offered while a lesson awaits confirmation
	ConfirmOptions = []string{"Có", "Không"}

	affirmativeTokens = map[string]bool{"có": true, "yes": true, "đúng": true}
	negativeTokens    = map[string]bool{"không": true, "no": true, "sai": true}
)

// Answerer resolves questions no lesson covers
type Answerer interface {
	Ask(ctx context.Context, query string, history []models.ChatMessage) string
}

// Reply is the resolver's answer to one user turn
type Reply struct {
	Text    string
	Options []string
}

// IntentResolver interprets each user turn against the lesson menu, the
// pending confirmation slot and lesson keywords before delegating to the
// remote answerer. It is the only writer of a conversation's pending slot.
// Callers must not run two turns of the same conversation concurrently.
type IntentResolver struct {
	lessons []models.Lesson
	answers Answerer
	now     func() time.Time
}

// IntentResolverOption is a functional option for IntentResolver
type IntentResolverOption func(*IntentResolver)

// ResolverWithClock overrides the clock used to timestamp messages
func ResolverWithClock(now func() time.Time) IntentResolverOption {
	return func(r *IntentResolver) {
		r.now = now
	}
}

// NewIntentResolver creates a resolver over lessons in catalog order
func NewIntentResolver(lessons []models.Lesson, answers Answerer, opts ...IntentResolverOption) *IntentResolver {
	r := &IntentResolver{
		lessons: make([]models.Lesson, len(lessons)),
		answers: answers,
		now:     time.Now,
	}
	copy(r.lessons, lessons)
	for i := range r.lessons {
		r.lessons[i].Key = strings.ToLower(normalizeText(r.lessons[i].Key))
		r.lessons[i].Title = normalizeText(r.lessons[i].Title)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LessonMenu returns the lesson titles in catalog order
func (r *IntentResolver) LessonMenu() []string {
	menu := make([]string, len(r.lessons))
	for i, l := range r.lessons {
		menu[i] = l.Title
	}
	return menu
}

// Welcome appends the greeting that opens a conversation
func (r *IntentResolver) Welcome(conv *models.Conversation, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        models.WelcomeMessageID,
		Role:      models.RoleModel,
		Text:      text,
		Timestamp: r.now(),
		Options:   r.LessonMenu(),
	}
	conv.Append(msg)
	return msg
}

// Handle records the user's input, resolves it and records the reply
func (r *IntentResolver) Handle(ctx context.Context, conv *models.Conversation, input string) models.ChatMessage {
	history := conv.Recent(HistoryTurns)
	conv.Append(models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Text:      input,
		Timestamp: r.now(),
	})

	reply := r.Resolve(ctx, conv, input, history)

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleModel,
		Text:      StripBold(reply.Text),
		Timestamp: r.now(),
		Options:   reply.Options,
	}
	conv.Append(msg)
	return msg
}

// Resolve decides the reply for input, updating the pending slot of conv.
// Priority: pending confirmation, exact menu title, keyword, remote answer.
func (r *IntentResolver) Resolve(ctx context.Context, conv *models.Conversation, input string, history []models.ChatMessage) Reply {
	input = normalizeText(input)
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return Reply{Text: msgEmptyInput, Options: r.LessonMenu()}
	}

	if pendingID, ok := conv.Pending(); ok {
		switch {
		case affirmativeTokens[text]:
			conv.ClearPending()
			content := msgMissingLesson
			if lesson, found := r.lessonByID(pendingID); found {
				content = lesson.Content
			}
			return Reply{Text: content, Options: r.LessonMenu()}
		case negativeTokens[text]:
			conv.ClearPending()
			return Reply{Text: msgDeclined, Options: r.LessonMenu()}
		}
		// A title picked from an earlier menu still opens that lesson.
		if lesson, found := r.lessonByTitle(input); found {
			conv.ClearPending()
			return Reply{Text: lesson.Content, Options: r.LessonMenu()}
		}
		return Reply{Text: msgAskYesNo, Options: confirmOptions()}
	}

	if lesson, found := r.lessonByTitle(input); found {
		return Reply{Text: lesson.Content, Options: r.LessonMenu()}
	}

	if lesson, found := r.lessonByKeyword(text); found {
		conv.SetPending(lesson.ID)
		return Reply{Text: fmt.Sprintf(msgConfirmLesson, lesson.Title), Options: confirmOptions()}
	}

	answer := r.answers.Ask(ctx, input, history)
	return Reply{Text: answer, Options: r.LessonMenu()}
}

func (r *IntentResolver) lessonByID(id int) (models.Lesson, bool) {
	for _, l := range r.lessons {
		if l.ID == id {
			return l, true
		}
	}
	return models.Lesson{}, false
}

func (r *IntentResolver) lessonByTitle(input string) (models.Lesson, bool) {
	input = strings.TrimSpace(input)
	for _, l := range r.lessons {
		if l.Title == input {
			return l, true
		}
	}
	return models.Lesson{}, false
}

// lessonByKeyword returns the first lesson, in catalog order, whose keyword
// occurs in text or whose title contains text
func (r *IntentResolver) lessonByKeyword(text string) (models.Lesson, bool) {
	for _, l := range r.lessons {
		if strings.Contains(text, l.Key) || strings.Contains(strings.ToLower(l.Title), text) {
			return l, true
		}
	}
	return models.Lesson{}, false
}

func confirmOptions() []string {
	out := make([]string, len(ConfirmOptions))
	copy(out, ConfirmOptions)
	return out
}

// StripBold removes literal ** markers from generated text
func StripBold(text string) string {
	return strings.ReplaceAll(text, "**", "")
}
