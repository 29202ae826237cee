package core

import "fmt"

const ragContextDelimiter = "--- RAG CONTEXT (from knowledge base documents) ---"

const defaultKnowledgeBaseVI = `Five Plus One (5plus1) là studio kiến trúc do KTS Kosuke Osawa sáng lập.
Triết lý: Godai (Ngũ Đại) — Đất, Nước, Lửa, Gió, Hư Không — cộng thêm yếu tố thứ sáu là Con người.
Giá trị cốt lõi: Sự kiên trì, Sự nhất quán, Niềm tin.
Dịch vụ: thiết kế kiến trúc, nội thất, quy hoạch; workshop nghệ thuật và cộng đồng.
Giọng điệu: điềm đạm, sâu sắc, tinh tế; nói về ánh sáng, bóng tối và dòng chảy của không gian.`

const defaultKnowledgeBaseEN = `Five Plus One (5plus1) is an architecture studio founded by architect Kosuke Osawa.
Philosophy: Godai (the five elements) — Earth, Water, Fire, Wind, Void — plus the human as the sixth element.
Core values: Persistence, Consistency, Trust.
Services: architectural design, interiors, urban planning; art and community workshops.
Tone: calm, thoughtful, refined; speak of light, shadow and the flow of space.`

// DefaultKnowledgeBase is the hardcoded persona used when the settings store
// has no knowledge_base_<language> entry.
func DefaultKnowledgeBase(language string) string {
	if language == "en" {
		return defaultKnowledgeBaseEN
	}
	return defaultKnowledgeBaseVI
}

// AssemblePrompt combines the persona text, the retrieved passages and the
// lead-capture protocol into the single system instruction for the model.
func AssemblePrompt(knowledgeBase, ragContext, language string) string {
	combined := knowledgeBase
	if ragContext != "" {
		combined = fmt.Sprintf("%s\n\n%s\n%s", knowledgeBase, ragContextDelimiter, ragContext)
	}

	languageName := "Vietnamese"
	if language == "en" {
		languageName = "English"
	}

	return fmt.Sprintf(`ROLE: You are the AI Architect for Five Plus One (Kosuke Osawa).
KNOWLEDGE BASE:
%s

STRICT PROTOCOL FOR LEADS:
1. If a user asks to book, design, or work together, you MUST collect: Name, Email, Phone, Project scope.
2. DO NOT call 'create_order' until you have ALL FOUR.
3. Language: %s
4. When answering questions about FIVE+ONE, prioritize information from the RAG CONTEXT section if available.`, combined, languageName)
}

func greeting(language string) string {
	if language == "en" {
		return "How can I help you today?"
	}
	return "Tôi có thể giúp gì cho bạn?"
}

func leadConfirmation(language, name string) string {
	if language == "en" {
		return fmt.Sprintf("Excellent. I've recorded your details, %s. Our studio will contact you soon.", name)
	}
	return fmt.Sprintf("Tuyệt vời. Tôi đã ghi lại thông tin của bạn, %s. Studio của chúng tôi sẽ liên hệ với bạn sớm nhất.", name)
}

func leadDetailsPrompt(language string) string {
	if language == "en" {
		return "I'd be glad to pass your request to the studio. Could you share your full name, email, phone number and a few words about the project?"
	}
	return "Tôi rất sẵn lòng chuyển yêu cầu của bạn đến studio. Bạn vui lòng cho biết họ tên, email, số điện thoại và đôi lời về dự án nhé?"
}

func apologyTransient(language string) string {
	if language == "en" {
		return "I'm having trouble connecting right now. Let's talk again soon."
	}
	return "Tôi đang gặp khó khăn khi kết nối. Hãy trò chuyện lại sau nhé."
}

func apologyDegraded(language string) string {
	if language == "en" {
		return "Our assistant is temporarily unavailable. Please contact the studio directly and we will get back to you."
	}
	return "Trợ lý của chúng tôi tạm thời gián đoạn. Vui lòng liên hệ trực tiếp với studio, chúng tôi sẽ phản hồi sớm nhất."
}
