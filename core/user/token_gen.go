package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	tokenSalt = []byte("masomo.core.user.password_reset")
	nowFunc   = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator issues one-shot password reset tokens of the form `<issued-at base36>-<signature>`.
// The signature covers the password hash and last login, so a reset or a new login voids older tokens.
type tokenGenerator struct {
	secretKey []byte
	timeout   time.Duration
}

// EncodeUID makes a User ID safe for reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	return string(id), err
}

func (g tokenGenerator) makeToken(usr User) string {
	return g.tokenAt(usr, nowFunc().Unix())
}

func (g tokenGenerator) verifyToken(usr User, token string) error {
	issued, _, ok := strings.Cut(token, "-")
	if !ok {
		return errInvalidToken
	}
	ts, err := strconv.ParseInt(issued, 36, 64)
	if err != nil || ts <= 0 {
		return errInvalidToken
	}
	if !hmac.Equal([]byte(g.tokenAt(usr, ts)), []byte(token)) {
		return errInvalidToken
	}
	if nowFunc().Sub(time.Unix(ts, 0)) > g.timeout {
		return errTokenExpired
	}
	return nil
}

func (g tokenGenerator) tokenAt(usr User, ts int64) string {
	mac := hmac.New(sha256.New, append(append([]byte{}, tokenSalt...), g.secretKey...))
	mac.Write([]byte(usr.ID))
	mac.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		_ = binary.Write(mac, binary.BigEndian, usr.LastLogin.UnixNano())
	}
	_ = binary.Write(mac, binary.BigEndian, ts)
	return strconv.FormatInt(ts, 36) + "-" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
