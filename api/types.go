package api

import (
	"context"

	"notevault-api/ai"
	"notevault-api/store"
)

// Sessions moves users between the anonymous and authenticated states.
type Sessions interface {
	Authenticate(ctx context.Context, userID string) (*store.Session, error)
	Logout(userID string)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Assistant is the generation surface handlers call into.
type Assistant interface {
	Summarize(ctx context.Context, content string) (string, error)
	Explain(ctx context.Context, concept string) (string, error)
	GenerateQuiz(ctx context.Context, content string) ([]ai.QuizQuestion, error)
	SuggestTags(ctx context.Context, title, content string) ([]string, error)
	Chat(ctx context.Context, message, noteContext string) (string, error)
}
