package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/auth"
	"github.com/trezcool/masomo/core/user"
)

const (
	apiKeyHeader = "x-api-key"
	bearerPrefix = "Bearer "

	ctxPrincipalKey = "principal"
	ctxClaimsKey    = "claims"
	ctxUserKey      = "user"
	ctxObjectKey    = "object"
)

var (
	errTokenSigningFailed = errors.New("token signing failed")
	signingMethod         = jwt.SigningMethodHS256

	// route guards
	isAdmin          = authorize(user.RoleAdmin)
	isStaff          = authorize(user.RoleAdmin, user.RoleDirection)
	isStaffOrTeacher = authorize(user.RoleAdmin, user.RoleDirection, user.RoleTeacher)
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         user.Role `json:"role,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(errTokenSigningFailed, err.Error())
	}
	return ss, nil
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// principalMiddleware resolves the caller from an API key or a bearer JWT.
func principalMiddleware(conf *core.Config, keys auth.APIKeys, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()

			if key := req.Header.Get(apiKeyHeader); key != "" {
				p, err := keys.Resolve(key, req.Method)
				if err != nil {
					return err
				}
				ctx.Set(ctxPrincipalKey, p)
				return next(ctx)
			}

			header := req.Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return auth.ErrMissingToken
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
			if tokenStr == "" {
				return auth.ErrMissingToken
			}
			claims, err := parseToken(conf, tokenStr)
			if err != nil {
				return err
			}

			usr, err := svc.GetByID(req.Context(), claims.Subject)
			if err != nil {
				switch errors.Cause(err).(type) {
				case *core.NotFoundError, *core.InvalidIDError:
					return auth.ErrUserNotFound
				}
				return errors.Wrap(err, "finding token user")
			}
			if !usr.IsActive {
				return auth.ErrAccountInactive
			}
			if claims.IssuedAt != nil && usr.PasswordChangedAfter(claims.IssuedAt.Unix()) {
				return auth.ErrPasswordChanged
			}

			ctx.Set(ctxClaimsKey, *claims)
			ctx.Set(ctxUserKey, usr)
			ctx.Set(ctxPrincipalKey, auth.Principal{Role: usr.Role, User: &usr})
			return next(ctx)
		}
	}
}

// authorize restricts a route to principals having one of roles.
func authorize(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if !p.HasAnyRole(roles...) {
				return auth.ErrPermissionDenied
			}
			return next(ctx)
		}
	}
}

// requireUser rejects API-key principals.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := getContextUser(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}

func getContextPrincipal(ctx echo.Context) (auth.Principal, error) {
	if p, ok := ctx.Get(ctxPrincipalKey).(auth.Principal); ok {
		return p, nil
	}
	return auth.Principal{}, auth.ErrMissingToken
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(ctxClaimsKey).(Claims); ok {
		return claims, nil
	}
	return Claims{}, auth.ErrUserRequired
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(ctxUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, auth.ErrUserRequired
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", auth.ErrRefreshExpired
	}

	return GenerateToken(conf, GetUserClaims(conf, usr, claims.OrigIssuedAt))
}

func newUserToken(conf *core.Config, usr user.User) (string, error) {
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	return token, errors.Wrap(err, "generating token")
}
