package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"utok/internal/domain"
	"utok/internal/repos"
	"utok/internal/session"
	"utok/internal/validate"
)

type AuthService struct {
	Users    *repos.UserRepo
	Tokens   *Tokens
	Sessions *session.Store
}

func NewAuthService(users *repos.UserRepo, tokens *Tokens, sessions *session.Store) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Sessions: sessions}
}

type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"confirmPassword"`
}

type SignInResult struct {
	Token     string       `json:"token"`
	User      *domain.User `json:"user"`
	SessionID string       `json:"-"`
}

func checkPasswords(pw, confirm string) error {
	if pw != confirm {
		return invalid("password", "Please make sure your passwords match.")
	}
	if !validate.Password(pw) {
		return invalid("password", "Please use a password with at least 8 characters.")
	}
	return nil
}

func (s *AuthService) SignUp(in SignUpInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" || in.Confirm == "" {
		return nil, invalid("form", "Please fill out all fields.")
	}
	if err := checkPasswords(in.Password, in.Confirm); err != nil {
		return nil, err
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("email", "Unable to validate email address: invalid format")
	}
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, invalid("name", "Please use a shorter name.")
	}
	email = strings.ToLower(email)

	switch _, err := s.Users.ByEmail(email); {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return nil, remote("users.by_email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Name: name, Hash: string(hash)}
	if err := s.Users.Create(u); err != nil {
		return nil, remote("users.create", err)
	}
	return &u, nil
}

// SignIn opens a fresh session and returns a bearer token bound to it.
func (s *AuthService) SignIn(email, password string) (SignInResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return SignInResult{}, invalid("form", "Please fill out all fields.")
	}
	u, err := s.Users.ByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		return SignInResult{}, ErrBadCreds
	}
	if err != nil {
		return SignInResult{}, remote("users.by_email", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return SignInResult{}, ErrBadCreds
	}
	sid := uuid.NewString()
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return SignInResult{}, remote("sessions.bind", err)
	}
	tok, err := s.Tokens.Issue(sid, u.ID)
	if err != nil {
		return SignInResult{}, err
	}
	return SignInResult{Token: tok, User: u, SessionID: sid}, nil
}

func (s *AuthService) SignOut(sid string) error {
	if err := s.Users.UnbindSession(sid); err != nil {
		return remote("sessions.unbind", err)
	}
	s.Sessions.Drop(sid)
	return nil
}

// CurrentUser resolves a session id to its user; signed-out sessions yield
// ErrUnauthenticated.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	u, err := s.Users.SessionUser(sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, remote("sessions.user", err)
	}
	return u, nil
}

func (s *AuthService) UpdatePassword(userID, pw, confirm string) error {
	if pw == "" || confirm == "" {
		return invalid("form", "Please fill out all password fields.")
	}
	if err := checkPasswords(pw, confirm); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return remote("users.update_hash", s.Users.UpdateHash(userID, string(hash)))
}

// DeleteUser removes the account and forgets every session it had. Orders
// stay in storage.
func (s *AuthService) DeleteUser(userID string) error {
	sids, err := s.Users.DeleteUserCascade(userID)
	if err != nil {
		return remote("users.delete", err)
	}
	for _, sid := range sids {
		s.Sessions.Drop(sid)
	}
	return nil
}

// Authenticate validates a bearer token and the session behind it.
func (s *AuthService) Authenticate(raw string) (*domain.User, string, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return nil, "", errors.Join(ErrUnauthenticated, err)
	}
	u, err := s.CurrentUser(claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	if u.ID != claims.Subject {
		return nil, "", ErrUnauthenticated
	}
	return u, claims.SessionID, nil
}
