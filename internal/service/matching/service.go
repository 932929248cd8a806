package matching

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/auth"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/repository"
	"github.com/oggyb/tinderito/internal/utils/pagination"
)

const (
	// CandidateLimit caps one discovery batch.
	CandidateLimit = 20
	// LikedYouPageSize is the page size of ListLikedYou.
	LikedYouPageSize = 20
)

// Candidate is a user shown for a like/dislike decision.
type Candidate struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Gender   string  `json:"gender"`
	Bio      string  `json:"bio"`
	Photo    *string `json:"photo"`
}

// MatchView is a match seen by one member.
type MatchView struct {
	MatchID   uint64    `json:"matchId"`
	CreatedAt time.Time `json:"createdAt"`
	User      struct {
		ID       uint64  `json:"id"`
		Name     string  `json:"name"`
		Username string  `json:"username"`
		Bio      string  `json:"bio"`
		Photo    *string `json:"photo"`
	} `json:"user"`
}

// Liker is one entry of the liked-you list.
type Liker struct {
	UserID        uint64 `json:"userId"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

// LikedYouPage is one page of likers plus the token for the next page.
type LikedYouPage struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
}

// Service implements discovery, reactions and matches on top of the
// repository and cache layers.
type Service struct {
	appCtx *app.AppContext
}

// NewMatchingService creates a new Matching service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (repositories are bound per call or per transaction)
//   - RedisCache for liked-you counters
func NewMatchingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// GetCandidates returns up to CandidateLimit users mutually eligible for userID.
//
// Behavior:
//   - Candidate gender fits the user's preference ("both" accepts any).
//   - Candidate preference is "both" or the user's gender.
//   - Anyone the user already reacted to (like or dislike) is left out for good.
//   - Each row carries the candidate's lowest-id photo, or none.
//   - Ordered by candidate id.
func (s *Service) GetCandidates(ctx context.Context, userID uint64) ([]Candidate, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("userId is required")
	}
	if !auth.CanActAs(ctx, userID) {
		return nil, svcErr.PermissionDenied("cannot browse candidates for another user")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	requester, err := users.GetByID(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, svcErr.NotFound("user not found")
	} else if err != nil {
		return nil, s.fail(ctx, "load requester", err)
	}

	rows, err := users.FindCandidates(ctx, requester, CandidateLimit)
	if err != nil {
		return nil, s.fail(ctx, "find candidates", err)
	}

	out := make([]Candidate, 0, len(rows))
	for _, c := range rows {
		out = append(out, Candidate(c))
	}

	s.appCtx.Logger.DebugContext(ctx, "GetCandidates result", "user_id", userID, "count", len(out))
	return out, nil
}

// React records emitter's reaction to target and reports whether the pair
// is now matched.
//
// Behavior:
//   - The (emitter, target) row is upserted; a repeat overwrites the reaction.
//   - On a like, a like from target back to emitter yields a match. The match
//     insert ignores an existing row, so either side reacting again (or both
//     racing) leaves exactly one match.
//   - A dislike never creates or removes a match.
//   - Everything above runs in one transaction that first row-locks both
//     users, so concurrent reacts on a pair run one after the other.
//   - Liked-you counters of both users are dropped after commit.
//
// Example:
//
//	svc.React(ctx, 1, 2, &liked) // -> true if user 2 already liked user 1
func (s *Service) React(ctx context.Context, emitterID, targetID uint64, reaction *bool) (bool, error) {
	if emitterID == 0 || targetID == 0 || reaction == nil {
		return false, svcErr.InvalidArgument("emitterId, targetId and reaction are required")
	}
	if emitterID == targetID {
		return false, svcErr.InvalidArgument("cannot react to yourself")
	}
	if !auth.CanActAs(ctx, emitterID) {
		return false, svcErr.PermissionDenied("cannot react on behalf of another user")
	}

	s.appCtx.Logger.DebugContext(ctx, "React called", "emitter", emitterID, "target", targetID, "reaction", *reaction)

	matched := false
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		likes := repository.NewLikeRepository(tx)

		// serializes reacts on the same pair so the reverse-like read below
		// sees the other side's committed like
		locked, err := users.LockForUpdate(ctx, emitterID, targetID)
		if err != nil {
			return err
		}
		if len(locked) != 2 {
			return svcErr.NotFound("user not found")
		}

		if err := likes.Upsert(ctx, emitterID, targetID, *reaction); err != nil {
			return err
		}
		if !*reaction {
			return nil
		}

		mutual, err := likes.HasLiked(ctx, targetID, emitterID)
		if err != nil || !mutual {
			return err
		}

		created, err := repository.NewMatchRepository(tx).CreateIfAbsent(ctx, emitterID, targetID)
		if err != nil {
			return err
		}
		if created {
			s.appCtx.Logger.InfoContext(ctx, "match created", "user_a", emitterID, "user_b", targetID)
		}
		matched = true
		return nil
	})
	if err != nil {
		return false, s.fail(ctx, "react", err)
	}

	// target's liked-you population changed; emitter's may have too (a dislike hides a liker)
	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, targetID, emitterID); err != nil {
		s.appCtx.Logger.WarnContext(ctx, "like count invalidation failed", "err", err)
	}

	return matched, nil
}

// ListMatches returns every match userID belongs to, each with the other
// member's profile summary. Ordered by match id.
func (s *Service) ListMatches(ctx context.Context, userID uint64) ([]MatchView, error) {
	if userID == 0 {
		return nil, svcErr.InvalidArgument("userId is required")
	}
	if !auth.CanActAs(ctx, userID) {
		return nil, svcErr.PermissionDenied("cannot list matches of another user")
	}

	rows, err := repository.NewMatchRepository(s.appCtx.DB).ListForUser(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "list matches", err)
	}

	out := make([]MatchView, 0, len(rows))
	for _, r := range rows {
		var v MatchView
		v.MatchID = r.MatchID
		v.CreatedAt = r.CreatedAt
		v.User.ID = r.UserID
		v.User.Name = r.Name
		v.User.Username = r.Username
		v.User.Bio = r.Bio
		v.User.Photo = r.Photo
		out = append(out, v)
	}
	return out, nil
}

// ListLikedYou returns the users who liked userID.
//
// Behavior:
//   - Users that userID explicitly disliked are left out.
//   - Newest first; paginated with an opaque token.
//
// Example:
//
//	svc.ListLikedYou(ctx, 42, "")
func (s *Service) ListLikedYou(ctx context.Context, userID uint64, paginationToken string) (LikedYouPage, error) {
	s.appCtx.Logger.DebugContext(ctx, "ListLikedYou called", "recipient", userID, "token", paginationToken)

	if userID == 0 {
		return LikedYouPage{}, svcErr.InvalidArgument("userId is required")
	}
	if !auth.CanActAs(ctx, userID) {
		return LikedYouPage{}, svcErr.PermissionDenied("cannot list likes of another user")
	}

	likes, nextToken, err := repository.NewLikeRepository(s.appCtx.DB).GetLikers(ctx, userID, paginationToken, LikedYouPageSize)
	if errors.Is(err, pagination.ErrInvalidToken) {
		return LikedYouPage{}, svcErr.InvalidArgument("paginationToken is invalid")
	} else if err != nil {
		return LikedYouPage{}, s.fail(ctx, "list likers", err)
	}

	page := LikedYouPage{Likers: make([]Liker, 0, len(likes)), NextPaginationToken: nextToken}
	for _, l := range likes {
		page.Likers = append(page.Likers, Liker{
			UserID:        l.EmitterID,
			UnixTimestamp: l.UpdatedAt.UnixMilli(),
		})
	}

	s.appCtx.Logger.DebugContext(ctx, "ListLikedYou result", "liker_count", len(page.Likers))
	return page, nil
}

// CountLikedYou returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID); a hit refreshes the TTL.
//  2. On a miss or cache failure, counts in the DB via repository.CountLikers.
//  3. Stores the DB count in Redis with a 1h TTL, unless the counter was
//     invalidated while counting.
func (s *Service) CountLikedYou(ctx context.Context, userID uint64) (int64, error) {
	if userID == 0 {
		return 0, svcErr.InvalidArgument("userId is required")
	}
	if !auth.CanActAs(ctx, userID) {
		return 0, svcErr.PermissionDenied("cannot count likes of another user")
	}

	// try cache first
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID); err != nil {
		s.appCtx.Logger.WarnContext(ctx, "like count cache read failed", "err", err)
	} else if ok {
		return n, nil
	}

	// version before the DB read: a React landing in between makes the write a no-op
	version, verErr := s.appCtx.RedisCache.LikeCountVersion(ctx, userID)

	// fallback: DB
	count, err := repository.NewLikeRepository(s.appCtx.DB).CountLikers(ctx, userID)
	if err != nil {
		return 0, s.fail(ctx, "count likers", err)
	}

	if verErr != nil {
		s.appCtx.Logger.WarnContext(ctx, "like count version read failed", "err", verErr)
		return count, nil
	}
	if _, err := s.appCtx.RedisCache.SetLikeCountIfVersion(ctx, userID, count, version); err != nil {
		s.appCtx.Logger.WarnContext(ctx, "like count cache write failed", "err", err)
	}
	return count, nil
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	mapped := svcErr.Map(err)
	if svcErr.HTTPStatus(mapped) >= 500 {
		s.appCtx.Logger.ErrorContext(ctx, op+" failed", "err", err)
	}
	return mapped
}
