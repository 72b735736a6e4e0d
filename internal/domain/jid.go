package domain

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

const (
	UserServer  = types.DefaultUserServer
	GroupServer = types.GroupServer

	userSuffix  = "@" + UserServer
	groupSuffix = "@" + GroupServer
)

// JID represents a WhatsApp user/group identifier
type JID struct {
	User   string
	Server string
}

func (j JID) String() string {
	if j.User == "" {
		return j.Server
	}
	return fmt.Sprintf("%s@%s", j.User, j.Server)
}

func (j JID) IsGroup() bool {
	return j.Server == GroupServer
}

func (j JID) IsUser() bool {
	return j.Server == UserServer
}

func (j JID) PhoneNumber() string {
	if j.IsUser() {
		return j.User
	}
	return ""
}

// ParseJID parses a direct or group JID. Device suffixes are dropped.
func ParseJID(s string) (JID, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "@") {
		return JID{}, fmt.Errorf("%w: invalid JID format: %s", ErrInvalidInput, s)
	}
	parsed, err := types.ParseJID(s)
	if err != nil {
		return JID{}, fmt.Errorf("%w: invalid JID format: %s", ErrInvalidInput, s)
	}
	if parsed.User == "" {
		return JID{}, fmt.Errorf("%w: JID has no user part: %s", ErrInvalidInput, s)
	}
	return JID{User: parsed.User, Server: parsed.Server}, nil
}

// NewUserJID builds a direct JID from a phone number.
func NewUserJID(phone string) JID {
	return JID{User: phone, Server: UserServer}
}

// IsGroupJID reports whether s addresses a group. The variant is decided by
// suffix alone.
func IsGroupJID(s string) bool {
	return strings.HasSuffix(s, groupSuffix)
}

// IsUserJID reports whether s addresses a direct chat.
func IsUserJID(s string) bool {
	return strings.HasSuffix(s, userSuffix)
}

// LooksLikeJID reports whether s already carries a recognized JID suffix.
func LooksLikeJID(s string) bool {
	s = strings.TrimSpace(s)
	return IsUserJID(s) || IsGroupJID(s)
}

// LocalPart returns the part of s before '@', or s itself.
func LocalPart(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return s[:i]
	}
	return s
}
