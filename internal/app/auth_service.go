package app

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

// AvatarPalette is the fixed set of avatar colors assigned at registration.
var AvatarPalette = []string{"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6"}

// PickAvatarColor selects uniformly from AvatarPalette using intn.
func PickAvatarColor(intn func(n int) int) string {
	return AvatarPalette[intn(len(AvatarPalette))]
}

// Session is what a successful login returns.
type Session struct {
	Token string
	User  domain.User
}

// AuthService registers and authenticates users.
type AuthService struct {
	users  UserRepository
	tokens *auth.TokenService
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAuthService(users UserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *AuthService) intn(n int) int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Intn(n)
}

// Register creates a student account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return domain.User{}, err
	}
	email := in.Email

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, domain.ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
		Roles:        domain.RoleSet{domain.RoleStudent},
		AvatarColor:  PickAvatarColor(s.intn),
		CreatedAt:    s.now(),
	}
	// the store enforces uniqueness too; a concurrent registration surfaces as ErrEmailTaken
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := Validate(in); err != nil {
		return Session{}, err
	}
	u, err := s.users.UserByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return Session{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(auth.Principal{UserID: u.ID, Email: u.Email, Roles: u.Roles})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

// Me returns the caller's current account record.
func (s *AuthService) Me(ctx context.Context, p auth.Principal) (domain.User, error) {
	return s.users.UserByID(ctx, p.UserID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
