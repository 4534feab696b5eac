package enroll

import (
	"encoding/base64"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sportscool/enroll-backend/internal/web"
)

var (
	// ErrNoCredentials means the request carried no Authorization header.
	ErrNoCredentials = errors.New("no credentials supplied")
	// ErrBadCredentials means credentials were supplied but did not check out.
	ErrBadCredentials = errors.New("bad credentials")
)

// UserFromRequest resolves the authenticated user from a Basic Authorization
// header. It is the authentication strategy for API clients that hold login
// and password rather than a session cookie. Missing credentials and invalid
// credentials are distinct typed failures so callers can choose their
// response.
func UserFromRequest(db *gorm.DB, req *web.Request) (*User, error) {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return nil, ErrNoCredentials
	}

	parts := strings.Fields(header)
	decoded, err := base64.StdEncoding.DecodeString(parts[len(parts)-1])
	if err != nil {
		return nil, ErrBadCredentials
	}
	login, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, ErrBadCredentials
	}

	user, err := GetUserByLogin(db, login)
	if err != nil {
		return nil, ErrBadCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// UserFromRequestOrNil is the never-failing variant: nil on missing or bad
// credentials.
func UserFromRequestOrNil(db *gorm.DB, req *web.Request) *User {
	user, err := UserFromRequest(db, req)
	if err != nil {
		return nil
	}
	return user
}
