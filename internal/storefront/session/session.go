package session

import (
	"strings"
	"time"
	"unicode/utf8"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/model"
)

const (
	MinLoginPasswordLength    = 3
	MinRegisterPasswordLength = 6
)

// Validation messages shown to the shopper.
const (
	MsgFillAllFields         = "Please fill in all fields"
	MsgFillRequiredFields    = "Please fill in all required fields"
	MsgLoginPasswordTooShort = "Password must be at least 3 characters long"
	MsgPasswordsDoNotMatch   = "Passwords do not match"
	MsgPasswordTooShort      = "Password must be at least 6 characters long"
	MsgAcceptTerms           = "Please accept the terms and conditions"
	MsgResetEmailRequired    = "Please enter your email address"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Phone           string `json:"phone"`
	TermsAccepted   bool   `json:"terms_accepted"`
}

// State is the optional current identity of one shopper. There is no
// credential store; any well-formed login is accepted.
//
// State is not safe for concurrent use.
type State struct {
	user *model.User
	now  func() time.Time
}

// New returns an empty session slot. A nil clock defaults to time.Now.
func New(now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{now: now}
}

// Login establishes a session named after the email's local part.
func (s *State) Login(email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errx.Validation("email", MsgFillAllFields)
	}
	if utf8.RuneCountInString(password) < MinLoginPasswordLength {
		return nil, errx.Validation("password", MsgLoginPasswordTooShort)
	}

	now := s.now().UTC()
	s.user = &model.User{
		Email:     email,
		Name:      LocalPart(email),
		LoginTime: &now,
	}
	return s.user.Clone(), nil
}

// Register validates the form and establishes a session with its details.
// Checks run in a fixed order and the first failure is returned.
func (s *State) Register(in RegisterInput) (*model.User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, errx.Validation("required", MsgFillRequiredFields)
	}
	if in.Password != in.ConfirmPassword {
		return nil, errx.Validation("confirm_password", MsgPasswordsDoNotMatch)
	}
	if utf8.RuneCountInString(in.Password) < MinRegisterPasswordLength {
		return nil, errx.Validation("password", MsgPasswordTooShort)
	}
	if !in.TermsAccepted {
		return nil, errx.Validation("terms_accepted", MsgAcceptTerms)
	}

	now := s.now().UTC()
	s.user = &model.User{
		Email:            in.Email,
		Name:             in.Name,
		Phone:            in.Phone,
		RegistrationTime: &now,
	}
	return s.user.Clone(), nil
}

// Logout clears the session unconditionally.
func (s *State) Logout() {
	s.user = nil
}

// Restore loads a persisted record verbatim. No expiry is enforced.
func (s *State) Restore(u *model.User) {
	s.user = u.Clone()
}

// Current returns a copy of the session, or nil when logged out.
func (s *State) Current() *model.User {
	return s.user.Clone()
}

// LoggedIn reports whether a session is established.
func (s *State) LoggedIn() bool {
	return s.user != nil
}

// ValidateResetRequest checks the forgot-password form.
func ValidateResetRequest(email string) error {
	if email == "" {
		return errx.Validation("email", MsgResetEmailRequired)
	}
	return nil
}

// LocalPart returns the substring before the first '@', or the whole
// address when there is none.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
