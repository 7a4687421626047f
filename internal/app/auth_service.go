package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gameed/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type AuthOptions struct {
	// AllowAdminSignup lets the public register endpoint create admin accounts.
	AllowAdminSignup bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// AuthService registers accounts, checks credentials and resolves bearer tokens.
type AuthService struct {
	users  UserRepository
	tokens *TokenIssuer
	opts   AuthOptions
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens *TokenIssuer, opts AuthOptions) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, opts: opts, now: time.Now}
}

// Register creates a student account unless another role is requested.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in, "Please provide name, email and password"); err != nil {
		return Session{}, err
	}

	role := domain.Role(in.Role)
	if role == "" {
		role = domain.RoleStudent
	}
	if role == domain.RoleAdmin && !s.opts.AllowAdminSignup {
		return Session{}, domain.Validation("Admin accounts cannot be self-registered")
	}

	user, err := s.createUser(ctx, in, role)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// EnsureAdmin creates the admin account unless the email is already registered. It reports
// whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (domain.User, bool, error) {
	in := RegisterInput{Name: strings.TrimSpace(name), Email: normalizeEmail(email), Password: password}
	if in.Name == "" {
		in.Name = "Administrator"
	}
	if err := validateInput(in, "Invalid admin account"); err != nil {
		return domain.User{}, false, err
	}
	existing, err := s.users.UserByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, false, fmt.Errorf("lookup email: %w", err)
	}
	user, err := s.createUser(ctx, in, domain.RoleAdmin)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role domain.Role) (domain.User, error) {
	if _, err := s.users.UserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.opts.BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		Points:       0,
		Level:        domain.LevelForPoints(0),
		LastActive:   now,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks credentials. Unknown email and wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in, "Please provide email and password"); err != nil {
		return Session{}, err
	}

	user, err := s.users.UserByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastActive(ctx, user.ID, now); err != nil {
		return Session{}, fmt.Errorf("touch last active: %w", err)
	}
	user.LastActive = now
	return s.session(user)
}

// Authenticate resolves a bearer token into the calling identity.
func (s *AuthService) Authenticate(token string) (Identity, error) {
	return s.tokens.Verify(token)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, caller Identity) (domain.User, error) {
	if !validID(caller.UserID) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users.UserByID(ctx, caller.UserID)
}

func (s *AuthService) session(user domain.User) (Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
