package service

import (
	"context"
	"testing"
	"time"

	"trafficsafe-backend/catalog"
	"trafficsafe-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, answers Answerer) (*IntentResolver, []models.Lesson) {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return NewIntentResolver(c.Lessons, answers, ResolverWithClock(func() time.Time { return fixed })), c.Lessons
}

func TestResolver_ExactTitleReturnsLessonContent(t *testing.T) {
	answers := &fakeAnswerer{}
	r, lessons := newTestResolver(t, answers)
	conv := models.NewConversation("vi", time.Now())

	msg := r.Handle(context.Background(), conv, "Bài 1: Tầm quan trọng")

	assert.Equal(t, lessons[0].Content, msg.Text)
	assert.Equal(t, r.LessonMenu(), msg.Options)
	_, pending := conv.Pending()
	assert.False(t, pending)
	assert.Empty(t, answers.queries)
}

func TestResolver_ExactTitleWhilePendingOpensLesson(t *testing.T) {
	r, lessons := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())
	conv.SetPending(4)

	msg := r.Handle(context.Background(), conv, "Bài 2: Hệ thống báo hiệu")

	assert.Equal(t, lessons[1].Content, msg.Text)
	_, pending := conv.Pending()
	assert.False(t, pending)
}

func TestResolver_KeywordSetsPendingConfirmation(t *testing.T) {
	answers := &fakeAnswerer{}
	r, _ := newTestResolver(t, answers)
	conv := models.NewConversation("vi", time.Now())

	msg := r.Handle(context.Background(), conv, "Cho tôi hỏi về Xe Đạp điện")

	assert.Equal(t, []string{"Có", "Không"}, msg.Options)
	assert.Contains(t, msg.Text, "Bài 4: Xe đạp & Xe điện")
	id, pending := conv.Pending()
	require.True(t, pending)
	assert.Equal(t, 4, id)
	assert.Empty(t, answers.queries)
}

func TestResolver_InputContainedInTitleMatches(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())

	r.Handle(context.Background(), conv, "thủy")

	id, pending := conv.Pending()
	require.True(t, pending)
	assert.Equal(t, 6, id)
}

func TestResolver_FirstCatalogMatchWins(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())

	r.Handle(context.Background(), conv, "xe máy và xe đạp")

	id, _ := conv.Pending()
	assert.Equal(t, 4, id)
}

func TestResolver_AffirmativeReturnsPendingLesson(t *testing.T) {
	for _, yes := range []string{"có", "Có", "YES", " đúng "} {
		r, lessons := newTestResolver(t, &fakeAnswerer{})
		conv := models.NewConversation("vi", time.Now())
		conv.SetPending(3)

		msg := r.Handle(context.Background(), conv, yes)

		assert.Equal(t, lessons[2].Content, msg.Text, yes)
		assert.Equal(t, r.LessonMenu(), msg.Options, yes)
		_, pending := conv.Pending()
		assert.False(t, pending, yes)
	}
}

func TestResolver_AffirmativeForUnknownLesson(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())
	conv.SetPending(42)

	msg := r.Handle(context.Background(), conv, "có")

	assert.Equal(t, msgMissingLesson, msg.Text)
	_, pending := conv.Pending()
	assert.False(t, pending)
}

func TestResolver_NegativeClearsPending(t *testing.T) {
	for _, no := range []string{"không", "No", "sai"} {
		r, _ := newTestResolver(t, &fakeAnswerer{})
		conv := models.NewConversation("vi", time.Now())
		conv.SetPending(2)

		msg := r.Handle(context.Background(), conv, no)

		assert.Equal(t, msgDeclined, msg.Text, no)
		assert.Equal(t, r.LessonMenu(), msg.Options, no)
		_, pending := conv.Pending()
		assert.False(t, pending, no)
	}
}

func TestResolver_AmbiguousKeepsPending(t *testing.T) {
	answers := &fakeAnswerer{}
	r, _ := newTestResolver(t, answers)
	conv := models.NewConversation("vi", time.Now())
	conv.SetPending(5)

	msg := r.Handle(context.Background(), conv, "có lẽ vậy")

	assert.Equal(t, msgAskYesNo, msg.Text)
	assert.Equal(t, []string{"Có", "Không"}, msg.Options)
	id, pending := conv.Pending()
	require.True(t, pending)
	assert.Equal(t, 5, id)
	assert.Empty(t, answers.queries)
}

func TestResolver_NoMatchDelegatesToAnswerer(t *testing.T) {
	answers := &fakeAnswerer{answer: "**Lưu ý:** phạt tiền theo NĐ 168/2024"}
	r, _ := newTestResolver(t, answers)
	conv := models.NewConversation("vi", time.Now())
	r.Welcome(conv, "xin chào")

	msg := r.Handle(context.Background(), conv, "Nồng độ cồn bị phạt bao nhiêu?")

	require.Len(t, answers.queries, 1)
	assert.Equal(t, "Nồng độ cồn bị phạt bao nhiêu?", answers.queries[0])
	assert.Equal(t, "Lưu ý: phạt tiền theo NĐ 168/2024", msg.Text)
	assert.Equal(t, r.LessonMenu(), msg.Options)
	_, pending := conv.Pending()
	assert.False(t, pending)

	// History offered to the answerer excludes the current question.
	require.Len(t, answers.history[0], 1)
	assert.Equal(t, models.WelcomeMessageID, answers.history[0][0].ID)
}

func TestResolver_HandleRecordsBothMessages(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{answer: "ok"})
	conv := models.NewConversation("vi", time.Now())

	r.Handle(context.Background(), conv, "câu hỏi khác")

	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "câu hỏi khác", conv.Messages[0].Text)
	assert.Equal(t, models.RoleModel, conv.Messages[1].Role)
	assert.NotEqual(t, conv.Messages[0].ID, conv.Messages[1].ID)
}

func TestResolver_BlankInputDoesNotDelegate(t *testing.T) {
	answers := &fakeAnswerer{}
	r, _ := newTestResolver(t, answers)
	conv := models.NewConversation("vi", time.Now())

	reply := r.Resolve(context.Background(), conv, "   ", nil)

	assert.Equal(t, msgEmptyInput, reply.Text)
	assert.Empty(t, answers.queries)
}

func TestResolver_WelcomeCarriesMenu(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())

	msg := r.Welcome(conv, "xin chào")

	assert.Equal(t, models.WelcomeMessageID, msg.ID)
	assert.Len(t, msg.Options, 6)
	assert.Len(t, conv.Messages, 1)
}

func TestStripBold(t *testing.T) {
	assert.Equal(t, "a b c", StripBold("**a** b **c"))
	assert.Equal(t, "*a*", StripBold("*a*"))
}

func TestResolver_DecomposedInputMatchesKeyword(t *testing.T) {
	r, _ := newTestResolver(t, &fakeAnswerer{})
	conv := models.NewConversation("vi", time.Now())

	// "xe đạp" with the dot below as a combining mark
	r.Handle(context.Background(), conv, "xe \u0111a\u0323p")

	id, pending := conv.Pending()
	require.True(t, pending)
	assert.Equal(t, 4, id)
}
