package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_tokenGenerator(t *testing.T) {
	gen := tokenGenerator{secretKey: []byte("secret"), timeout: 72 * time.Hour}

	now := time.Now().UTC()
	usr := User{ID: "5b0b0d9e-3c8f-4b8f-9d4a-0a6f2f0b8c11", Email: "t@test.cd", Role: RoleStudent, IsActive: true, LastLogin: now}
	require.NoError(t, usr.SetPassword("pwd"))

	token := gen.makeToken(usr)

	nowFunc = func() time.Time { return now.Add(-gen.timeout - time.Minute) }
	expired := gen.makeToken(usr)
	nowFunc = time.Now

	otherKey := tokenGenerator{secretKey: []byte("other"), timeout: gen.timeout}.makeToken(usr)

	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Minute)

	reset := usr
	require.NoError(t, reset.SetPassword("new-pwd"))

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "empty", usr: usr, wantErr: errInvalidToken},
		{name: "no signature", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "bad timestamp", usr: usr, token: "???-sig", wantErr: errInvalidToken},
		{name: "forged signature", usr: usr, token: "1a2b3c-sig", wantErr: errInvalidToken},
		{name: "other secret", usr: usr, token: otherKey, wantErr: errInvalidToken},
		{name: "expired", usr: usr, token: expired, wantErr: errTokenExpired},
		{name: "logged in since", usr: loggedIn, token: token, wantErr: errInvalidToken},
		{name: "password changed since", usr: reset, token: token, wantErr: errInvalidToken},
		{name: "valid", usr: usr, token: token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, gen.verifyToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeUID(t *testing.T) {
	usr := User{ID: "5b0b0d9e-3c8f-4b8f-9d4a-0a6f2f0b8c11"}
	id, err := decodeUID(EncodeUID(usr))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("not base64!")
	assert.Error(t, err)
}
