package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pondside/pondside/internal/dependencies/clock"
	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/storage"
)

// Message limits
const (
	// MaxMessageLen caps a single chat message, in runes.
	MaxMessageLen = 200
	// HistoryLimit is how many messages newcomers to an area receive.
	HistoryLimit = 50
)

// ErrEmptyMessage is returned for messages that are empty after trimming.
// Callers drop these silently.
var ErrEmptyMessage = errors.New("empty chat message")

// Service is the per-area message log.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new chat Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "chat")),
	}
}

// Append trims and caps the text, then stores it. Storage assigns the
// message id and prunes the area's history past the retention cap.
func (s *Service) Append(ctx context.Context, area model.AreaID, author model.PlayerName, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if runes := []rune(text); len(runes) > MaxMessageLen {
		text = string(runes[:MaxMessageLen])
	}

	return s.storage.AppendChatMessage(ctx, &model.ChatMessage{
		Area:      area,
		Author:    author,
		Text:      text,
		CreatedAt: s.clock.Now(),
	})
}

// Recent returns the area's newest messages in chronological order.
// Each call re-queries current state.
func (s *Service) Recent(ctx context.Context, area model.AreaID) ([]model.ChatMessage, error) {
	return s.storage.RecentChatMessages(ctx, area, HistoryLimit)
}
