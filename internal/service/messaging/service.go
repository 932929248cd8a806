package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/auth"
	"github.com/oggyb/tinderito/internal/db"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/repository"
)

// MaxTextLength bounds a single message, in bytes.
const MaxTextLength = 4096

// Message is the wire form of a stored message.
type Message struct {
	ID        uint64    `json:"id"`
	MatchID   uint64    `json:"matchId"`
	EmitterID uint64    `json:"emitterId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service implements per-match messaging. Only the two members of a match
// may write to or read its conversation.
type Service struct {
	appCtx *app.AppContext
}

// NewMessagingService creates a new Messaging service with dependencies from AppContext.
func NewMessagingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// SendMessage stores text in matchID's conversation on behalf of emitterID.
// Membership is checked before the insert; an unknown match is reported the
// same way as a match the emitter is not part of.
func (s *Service) SendMessage(ctx context.Context, matchID, emitterID uint64, text string) (Message, error) {
	if matchID == 0 || emitterID == 0 || strings.TrimSpace(text) == "" {
		return Message{}, svcErr.InvalidArgument("matchId, emitterId and text are required")
	}
	if len(text) > MaxTextLength {
		return Message{}, svcErr.InvalidArgument("text is too long")
	}
	if !auth.CanActAs(ctx, emitterID) {
		return Message{}, svcErr.PermissionDenied("cannot send messages as another user")
	}

	if err := s.requireMember(ctx, matchID, emitterID); err != nil {
		return Message{}, err
	}

	msg := db.Message{MatchID: matchID, EmitterID: emitterID, Text: text}
	if err := repository.NewMessageRepository(s.appCtx.DB).Create(ctx, &msg); err != nil {
		return Message{}, s.fail(ctx, "create message", err)
	}

	s.appCtx.Logger.DebugContext(ctx, "message sent", "match_id", matchID, "message_id", msg.ID)
	return toMessage(msg), nil
}

// ListMessages returns matchID's conversation, oldest first, to one of its members.
func (s *Service) ListMessages(ctx context.Context, matchID, userID uint64) ([]Message, error) {
	if matchID == 0 || userID == 0 {
		return nil, svcErr.InvalidArgument("matchId and userId are required")
	}
	if !auth.CanActAs(ctx, userID) {
		return nil, svcErr.PermissionDenied("cannot read messages as another user")
	}

	if err := s.requireMember(ctx, matchID, userID); err != nil {
		return nil, err
	}

	rows, err := repository.NewMessageRepository(s.appCtx.DB).ListByMatch(ctx, matchID)
	if err != nil {
		return nil, s.fail(ctx, "list messages", err)
	}

	out := make([]Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMessage(m))
	}
	return out, nil
}

func (s *Service) requireMember(ctx context.Context, matchID, userID uint64) error {
	ok, err := repository.NewMatchRepository(s.appCtx.DB).IsMember(ctx, matchID, userID)
	if err != nil {
		return s.fail(ctx, "check membership", err)
	}
	if !ok {
		s.appCtx.Logger.WarnContext(ctx, "non-member access to match", "match_id", matchID, "user_id", userID)
		return svcErr.PermissionDenied("user is not a member of this match")
	}
	return nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	mapped := svcErr.Map(err)
	if svcErr.HTTPStatus(mapped) >= 500 {
		s.appCtx.Logger.ErrorContext(ctx, op+" failed", "err", err)
	}
	return mapped
}

func toMessage(m db.Message) Message {
	return Message{
		ID:        m.ID,
		MatchID:   m.MatchID,
		EmitterID: m.EmitterID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
