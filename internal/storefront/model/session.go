package model

import "time"

// User is the persisted currentUser record. Exactly one of LoginTime and
// RegistrationTime is set depending on how the session was established.
type User struct {
	Email            string     `json:"email"`
	Name             string     `json:"name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	LoginTime        *time.Time `json:"loginTime,omitempty"`
	RegistrationTime *time.Time `json:"registrationTime,omitempty"`
}

// DisplayName falls back to the email when no name is known.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// EstablishedAt returns when the session was created, or the zero time for
// records restored without a timestamp.
func (u *User) EstablishedAt() time.Time {
	switch {
	case u.LoginTime != nil:
		return *u.LoginTime
	case u.RegistrationTime != nil:
		return *u.RegistrationTime
	default:
		return time.Time{}
	}
}

// Clone returns a deep copy so callers cannot mutate the session slot.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LoginTime != nil {
		t := *u.LoginTime
		c.LoginTime = &t
	}
	if u.RegistrationTime != nil {
		t := *u.RegistrationTime
		c.RegistrationTime = &t
	}
	return &c
}
