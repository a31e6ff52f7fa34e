package service

import (
	"fmt"
	"strings"

	"trafficsafe-backend/models"
)

// LegalScoreThreshold is the corpus score above which the legal-expert
// prompt is used
const LegalScoreThreshold = 2

// HistoryTurns is how many previous messages are offered to the prompt
const HistoryTurns = 5

// PromptKind names the framing chosen for a query
type PromptKind string

const (
	PromptLegalExpert PromptKind = "legal_expert"
	PromptGeneral     PromptKind = "general"
)

const legalExpertTemplate = `Bạn là chuyên gia tư vấn luật giao thông Việt Nam.
Hãy trả lời dựa trên dữ liệu sau: %s

HƯỚNG DẪN:
1. Trả lời NGẮN GỌN, SÚC TÍCH, ĐẦY ĐỦ ý chính.
2. Dùng ICON (✅, ⛔, ⚠️, 💡...) đầu dòng cho sinh động.
3. Trích nguồn ngắn gọn (VD: NĐ 168/2024).
4. Nếu không có trong dữ liệu, trả lời ngắn gọn theo kiến thức chung.
5. KHÔNG sử dụng dấu ** để in đậm.
%s
Câu hỏi: "%s"`

const generalTemplate = `Bạn là một trợ lý AI thân thiện và am hiểu. Hãy trả lời câu hỏi của người dùng về đời sống hoặc pháp luật chung tại Việt Nam một cách gần gũi, dễ hiểu và đi thẳng vào vấn đề. Sử dụng giọng văn tự nhiên như đang trò chuyện với một người bạn. KHÔNG sử dụng dấu ** để in đậm.
%s
Câu hỏi: "%s"`

// BuildPrompt frames query for the generative API. Queries whose best corpus
// score exceeds LegalScoreThreshold get the legal-expert prompt grounded on
// the retrieved context; anything else gets the general assistant prompt.
func BuildPrompt(query string, legal LegalContext, history []models.ChatMessage) (string, PromptKind) {
	hist := formatHistory(history)
	if legal.TopScore > LegalScoreThreshold {
		return fmt.Sprintf(legalExpertTemplate, legal.Context, hist, query), PromptLegalExpert
	}
	return fmt.Sprintf(generalTemplate, hist, query), PromptGeneral
}

func formatHistory(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	var b strings.Builder
	b.WriteString("\nLịch sử hội thoại:\n")
	for _, msg := range history {
		speaker := "Model"
		if msg.Role == models.RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, msg.Text)
	}
	return b.String()
}
