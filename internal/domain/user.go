package domain

import (
	"fmt"
)

// User is one of the two fixed participants. The zero value is UserA.
type User uint8

const (
	UserA User = iota
	UserB
)

// Users lists both participants in a stable order.
var Users = [...]User{UserA, UserB}

var userNames = [...]string{
	UserA: "Aditya",
	UserB: "Ananya",
}

func (u User) String() string {
	if int(u) < len(userNames) {
		return userNames[u]
	}
	return fmt.Sprintf("User(%d)", uint8(u))
}

// Valid reports whether u is one of the two known users.
func (u User) Valid() bool {
	return u == UserA || u == UserB
}

// ParseUser maps a wire name back to a User.
func ParseUser(name string) (User, error) {
	for _, u := range Users {
		if userNames[u] == name {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUser, name)
}

func (u User) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, uint8(u))
	}
	return []byte(u.String()), nil
}

func (u *User) UnmarshalText(text []byte) error {
	parsed, err := ParseUser(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
