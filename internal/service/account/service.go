package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/tinderito/internal/app"
	"github.com/oggyb/tinderito/internal/auth"
	"github.com/oggyb/tinderito/internal/db"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/repository"
)

// MaxUploadPhotos is how many files one upload request may carry.
const MaxUploadPhotos = 3

// Profile is the public view of a user. The password hash never leaves the service.
type Profile struct {
	ID               uint64    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	Gender           string    `json:"gender"`
	GenderPreference string    `json:"genderPreference"`
	Bio              string    `json:"bio"`
	Photos           []string  `json:"photos"`
	Complete         bool      `json:"complete"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Gender   string
}

// UpdateInput carries an account edit. NewPassword is optional.
type UpdateInput struct {
	TargetUsername  string
	Name            string
	Email           string
	NewUsername     string
	CurrentPassword string
	NewPassword     string
}

// CompleteInput carries profile completion. Photos is optional; when non-nil
// it replaces the user's photo list.
type CompleteInput struct {
	Username         string
	Bio              string
	GenderPreference string
	Photos           []string
}

// Service implements account management: registration, credentials and
// profile data. Multi-statement writes run in one transaction.
type Service struct {
	appCtx *app.AppContext
}

// NewAccountService creates a new Account service with dependencies from AppContext.
func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// Register creates a user and returns its profile plus a session token.
//
// Behavior:
//   - All fields are required; gender must be male or female.
//   - Username is checked before email; the first collision is reported.
//   - The unique indexes still decide when two registrations race.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Profile, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))

	if in.Name == "" || in.Email == "" || in.Username == "" || in.Password == "" || in.Gender == "" {
		return Profile{}, "", svcErr.InvalidArgument("name, email, username, password and gender are required")
	}
	if !validGender(in.Gender) {
		return Profile{}, "", svcErr.InvalidArgument("gender must be male or female")
	}
	if !strings.Contains(in.Email, "@") {
		return Profile{}, "", svcErr.InvalidArgument("email is invalid")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	if err := s.checkConflict(ctx, users, in.Username, in.Email, 0); err != nil {
		return Profile{}, "", err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return Profile{}, "", err
	}

	user := db.User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Gender:       in.Gender,
	}
	if err := users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race against a concurrent registration
			if cerr := s.checkConflict(ctx, users, in.Username, in.Email, 0); cerr != nil {
				return Profile{}, "", cerr
			}
			return Profile{}, "", svcErr.AlreadyExists("username or email already taken")
		}
		s.appCtx.Logger.ErrorContext(ctx, "create user failed", "username", in.Username, "err", err)
		return Profile{}, "", svcErr.Map(err)
	}

	s.appCtx.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issue(ctx, user, []string{})
}

// Login verifies the password and returns the profile plus a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Profile, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Profile{}, "", svcErr.InvalidArgument("username and password are required")
	}

	user, err := repository.NewUserRepository(s.appCtx.DB).GetByUsername(ctx, username)
	if repository.IsNotFound(err) {
		return Profile{}, "", svcErr.NotFound("user not found")
	} else if err != nil {
		return Profile{}, "", svcErr.Map(err)
	}

	if !checkPassword(user.PasswordHash, password) {
		s.appCtx.Logger.WarnContext(ctx, "login failed", "user_id", user.ID)
		return Profile{}, "", svcErr.Unauthenticated("invalid password")
	}

	urls, err := repository.NewPhotoRepository(s.appCtx.DB).ListURLs(ctx, user.ID)
	if err != nil {
		return Profile{}, "", svcErr.Map(err)
	}
	return s.issue(ctx, user, urls)
}

// UpdateProfile edits the account fields of TargetUsername.
//
// Behavior:
//   - CurrentPassword must match the stored hash.
//   - Username/email conflicts ignore the user's own row.
//   - NewPassword, when set, replaces the hash; otherwise the hash is kept.
//   - The read-check-write sequence runs in one transaction.
func (s *Service) UpdateProfile(ctx context.Context, in UpdateInput) (Profile, error) {
	in.TargetUsername = strings.TrimSpace(in.TargetUsername)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.NewUsername = strings.TrimSpace(in.NewUsername)

	if in.TargetUsername == "" {
		return Profile{}, svcErr.InvalidArgument("username is required")
	}
	if in.Name == "" || in.Email == "" || in.NewUsername == "" || in.CurrentPassword == "" {
		return Profile{}, svcErr.InvalidArgument("name, email, username and currentPassword are required")
	}
	if !strings.Contains(in.Email, "@") {
		return Profile{}, svcErr.InvalidArgument("email is invalid")
	}

	var newHash string
	if in.NewPassword != "" {
		h, err := s.hash(in.NewPassword)
		if err != nil {
			return Profile{}, err
		}
		newHash = h
	}

	var out Profile
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)

		user, err := users.GetByUsername(ctx, in.TargetUsername)
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		} else if err != nil {
			return err
		}
		if !auth.CanActAs(ctx, user.ID) {
			return svcErr.PermissionDenied("cannot edit another user's account")
		}
		if !checkPassword(user.PasswordHash, in.CurrentPassword) {
			return svcErr.Unauthenticated("current password is incorrect")
		}
		if err := s.checkConflict(ctx, users, in.NewUsername, in.Email, user.ID); err != nil {
			return err
		}

		user.Name = in.Name
		user.Email = in.Email
		user.Username = in.NewUsername
		if newHash != "" {
			user.PasswordHash = newHash
		}
		if err := users.UpdateAccount(ctx, &user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return svcErr.AlreadyExists("username or email already taken")
			}
			return err
		}

		urls, err := repository.NewPhotoRepository(tx).ListURLs(ctx, user.ID)
		if err != nil {
			return err
		}
		out = toProfile(user, urls)
		return nil
	})
	if err != nil {
		return Profile{}, s.fail(ctx, "update profile", err)
	}
	return out, nil
}

// CompleteProfile sets bio and gender preference, and optionally replaces
// the photo list (at least MinProfilePhotos URLs) in the same transaction.
func (s *Service) CompleteProfile(ctx context.Context, in CompleteInput) (Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Bio = strings.TrimSpace(in.Bio)
	in.GenderPreference = strings.ToLower(strings.TrimSpace(in.GenderPreference))

	if in.Username == "" {
		return Profile{}, svcErr.InvalidArgument("username is required")
	}
	if in.Bio == "" || in.GenderPreference == "" {
		return Profile{}, svcErr.InvalidArgument("bio and genderPreference are required")
	}
	if !validPreference(in.GenderPreference) {
		return Profile{}, svcErr.InvalidArgument("genderPreference must be male, female or both")
	}
	if in.Photos != nil {
		urls, err := cleanURLs(in.Photos)
		if err != nil {
			return Profile{}, err
		}
		if len(urls) < db.MinProfilePhotos {
			return Profile{}, svcErr.InvalidArgument("at least 3 photos are required")
		}
		in.Photos = urls
	}

	var out Profile
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		photos := repository.NewPhotoRepository(tx)

		user, err := users.GetByUsername(ctx, in.Username)
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		} else if err != nil {
			return err
		}
		if !auth.CanActAs(ctx, user.ID) {
			return svcErr.PermissionDenied("cannot edit another user's profile")
		}

		if err := users.UpdateProfile(ctx, user.ID, in.Bio, in.GenderPreference); err != nil {
			return err
		}
		if in.Photos != nil {
			if err := photos.Replace(ctx, user.ID, in.Photos); err != nil {
				return err
			}
		}

		user.Bio = in.Bio
		user.GenderPreference = in.GenderPreference
		urls, err := photos.ListURLs(ctx, user.ID)
		if err != nil {
			return err
		}
		out = toProfile(user, urls)
		return nil
	})
	if err != nil {
		return Profile{}, s.fail(ctx, "complete profile", err)
	}
	return out, nil
}

// DeleteAccount removes the user and everything hanging off it: photos,
// likes given and received, matches and their messages. Affected liked-you
// counters are dropped and stored photo files removed after commit.
func (s *Service) DeleteAccount(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return svcErr.InvalidArgument("username is required")
	}

	var (
		userID   uint64
		affected []uint64
		urls     []string
	)
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		likes := repository.NewLikeRepository(tx)
		matches := repository.NewMatchRepository(tx)
		photos := repository.NewPhotoRepository(tx)

		user, err := users.GetByUsername(ctx, username)
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		} else if err != nil {
			return err
		}
		if !auth.CanActAs(ctx, user.ID) {
			return svcErr.PermissionDenied("cannot delete another user's account")
		}
		userID = user.ID

		matchIDs, err := matches.MatchIDsForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := repository.NewMessageRepository(tx).DeleteForMatches(ctx, matchIDs); err != nil {
			return err
		}
		if err := matches.DeleteForUser(ctx, user.ID); err != nil {
			return err
		}

		if affected, err = likes.TargetsLikedBy(ctx, user.ID); err != nil {
			return err
		}
		if err := likes.DeleteForUser(ctx, user.ID); err != nil {
			return err
		}

		if urls, err = photos.ListURLs(ctx, user.ID); err != nil {
			return err
		}
		if err := photos.DeleteForUser(ctx, user.ID); err != nil {
			return err
		}

		return users.Delete(ctx, user.ID)
	})
	if err != nil {
		return s.fail(ctx, "delete account", err)
	}

	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, append(affected, userID)...); err != nil {
		s.appCtx.Logger.WarnContext(ctx, "like count invalidation failed", "err", err)
	}
	if s.appCtx.Photos != nil {
		for _, u := range urls {
			if err := s.appCtx.Photos.Remove(u); err != nil {
				s.appCtx.Logger.WarnContext(ctx, "photo cleanup failed", "url", u, "err", err)
			}
		}
	}

	s.appCtx.Logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

// GetProfile returns the public profile of id.
func (s *Service) GetProfile(ctx context.Context, id uint64) (Profile, error) {
	if id == 0 {
		return Profile{}, svcErr.InvalidArgument("id is required")
	}
	user, err := repository.NewUserRepository(s.appCtx.DB).GetByID(ctx, id)
	return s.loadProfile(ctx, user, err)
}

// GetProfileByUsername returns the public profile of username.
func (s *Service) GetProfileByUsername(ctx context.Context, username string) (Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Profile{}, svcErr.InvalidArgument("username is required")
	}
	user, err := repository.NewUserRepository(s.appCtx.DB).GetByUsername(ctx, username)
	return s.loadProfile(ctx, user, err)
}

// UploadPhotos stores up to MaxUploadPhotos image files for userID and
// appends their URLs. Bio and preference are updated alongside when given.
// Files are written before the transaction and removed again if it fails.
func (s *Service) UploadPhotos(ctx context.Context, userID uint64, bio, pref string, files [][]byte) (Profile, error) {
	bio = strings.TrimSpace(bio)
	pref = strings.ToLower(strings.TrimSpace(pref))

	if userID == 0 {
		return Profile{}, svcErr.InvalidArgument("userId is required")
	}
	if len(files) == 0 {
		return Profile{}, svcErr.InvalidArgument("at least one photo is required")
	}
	if len(files) > MaxUploadPhotos {
		return Profile{}, svcErr.InvalidArgument("at most 3 photos per upload")
	}
	if pref != "" && !validPreference(pref) {
		return Profile{}, svcErr.InvalidArgument("genderPreference must be male, female or both")
	}
	if !auth.CanActAs(ctx, userID) {
		return Profile{}, svcErr.PermissionDenied("cannot upload photos for another user")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	if ok, err := users.Exists(ctx, userID); err != nil {
		return Profile{}, svcErr.Map(err)
	} else if !ok {
		return Profile{}, svcErr.NotFound("user not found")
	}

	urls := make([]string, 0, len(files))
	cleanup := func() {
		for _, u := range urls {
			_ = s.appCtx.Photos.Remove(u)
		}
	}
	for i, data := range files {
		u, err := s.appCtx.Photos.Save(ctx, data)
		if err != nil {
			cleanup()
			s.appCtx.Logger.WarnContext(ctx, "photo rejected", "user_id", userID, "index", i, "err", err)
			return Profile{}, svcErr.InvalidArgument(fmt.Sprintf("photo%d is not a supported image", i+1))
		}
		urls = append(urls, u)
	}

	var out Profile
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		photos := repository.NewPhotoRepository(tx)

		user, err := users.GetByID(ctx, userID)
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		} else if err != nil {
			return err
		}

		if bio != "" || pref != "" {
			if bio == "" {
				bio = user.Bio
			}
			if pref == "" {
				pref = user.GenderPreference
			}
			if err := users.UpdateProfile(ctx, user.ID, bio, pref); err != nil {
				return err
			}
			user.Bio, user.GenderPreference = bio, pref
		}

		if _, err := photos.Add(ctx, user.ID, urls...); err != nil {
			return err
		}
		all, err := photos.ListURLs(ctx, user.ID)
		if err != nil {
			return err
		}
		out = toProfile(user, all)
		return nil
	})
	if err != nil {
		cleanup()
		return Profile{}, s.fail(ctx, "upload photos", err)
	}
	return out, nil
}

// AddPhoto appends one photo URL to userID's list and returns the full list.
func (s *Service) AddPhoto(ctx context.Context, userID uint64, url string) ([]string, error) {
	url = strings.TrimSpace(url)
	if userID == 0 || url == "" {
		return nil, svcErr.InvalidArgument("userId and url are required")
	}
	if !auth.CanActAs(ctx, userID) {
		return nil, svcErr.PermissionDenied("cannot add photos for another user")
	}

	users := repository.NewUserRepository(s.appCtx.DB)
	if ok, err := users.Exists(ctx, userID); err != nil {
		return nil, svcErr.Map(err)
	} else if !ok {
		return nil, svcErr.NotFound("user not found")
	}

	photos := repository.NewPhotoRepository(s.appCtx.DB)
	if _, err := photos.Add(ctx, userID, url); err != nil {
		return nil, s.fail(ctx, "add photo", err)
	}
	urls, err := photos.ListURLs(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return urls, nil
}

func (s *Service) loadProfile(ctx context.Context, user db.User, err error) (Profile, error) {
	if repository.IsNotFound(err) {
		return Profile{}, svcErr.NotFound("user not found")
	} else if err != nil {
		return Profile{}, svcErr.Map(err)
	}
	urls, err := repository.NewPhotoRepository(s.appCtx.DB).ListURLs(ctx, user.ID)
	if err != nil {
		return Profile{}, svcErr.Map(err)
	}
	return toProfile(user, urls), nil
}

// checkConflict reports the first taken field as AlreadyExists.
func (s *Service) checkConflict(ctx context.Context, users *repository.UserRepository, username, email string, excludeID uint64) error {
	field, err := users.FindConflict(ctx, username, email, excludeID)
	if err != nil {
		return err
	}
	switch field {
	case repository.ConflictUsername:
		return svcErr.AlreadyExists("username already taken")
	case repository.ConflictEmail:
		return svcErr.AlreadyExists("email already registered")
	}
	return nil
}

func (s *Service) issue(ctx context.Context, user db.User, urls []string) (Profile, string, error) {
	token, err := s.appCtx.Tokens.Sign(user.ID, user.Username)
	if err != nil {
		s.appCtx.Logger.ErrorContext(ctx, "sign token failed", "user_id", user.ID, "err", err)
		return Profile{}, "", svcErr.Internal()
	}
	return toProfile(user, urls), token, nil
}

func (s *Service) hash(password string) (string, error) {
	cost := s.appCtx.Config.Auth.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", svcErr.InvalidArgument("password is too long")
		}
		return "", svcErr.Internal()
	}
	return string(h), nil
}

// fail logs unexpected errors and maps everything to a status error.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	mapped := svcErr.Map(err)
	if svcErr.HTTPStatus(mapped) >= 500 {
		s.appCtx.Logger.ErrorContext(ctx, op+" failed", "err", err)
	}
	return mapped
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func toProfile(u db.User, urls []string) Profile {
	if urls == nil {
		urls = []string{}
	}
	return Profile{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Username:         u.Username,
		Gender:           u.Gender,
		GenderPreference: u.GenderPreference,
		Bio:              u.Bio,
		Photos:           urls,
		Complete:         u.Bio != "" && u.GenderPreference != "" && len(urls) >= db.MinProfilePhotos,
		CreatedAt:        u.CreatedAt,
	}
}

func validGender(g string) bool {
	return g == db.GenderMale || g == db.GenderFemale
}

func validPreference(p string) bool {
	return validGender(p) || p == db.PrefBoth
}

func cleanURLs(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, u := range in {
		u = strings.TrimSpace(u)
		if u == "" {
			return nil, svcErr.InvalidArgument("photo urls must not be empty")
		}
		out = append(out, u)
	}
	return out, nil
}
