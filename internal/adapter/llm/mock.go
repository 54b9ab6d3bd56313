package llm

import (
	"fmt"
	"strings"

	"ragkit/internal/domain"
)

// MockClient is an offline stand-in for the chat client. It echoes a
// short summary of the last user message so pipelines can be exercised
// without an API key.
type MockClient struct{}

func NewMock() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(messages []domain.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			content := messages[i].Content
			if idx := strings.LastIndex(content, "Question:"); idx >= 0 {
				content = strings.TrimSpace(content[idx+len("Question:"):])
			}
			return fmt.Sprintf("[mock] %s", firstLine(content)), nil
		}
	}
	return "[mock] no user message", nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
