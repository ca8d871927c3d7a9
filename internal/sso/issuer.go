package sso

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/metaforge/ssobridge/internal/common"
	"github.com/metaforge/ssobridge/internal/models"
)

const issuerName = "ssobridge"

// upstreamClaim is the dedicated nested key carrying the IdP token bundle,
// so consumers can tell this service's session claims apart from the opaque
// upstream tokens to be replayed against the IdP later.
const upstreamClaim = "upstream"

// IssuedSession is a freshly minted session credential.
type IssuedSession struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SignSession mints a signed HMAC-SHA256 session credential for a validated
// assertion. The user payload is normalized into a fixed, explicit claim
// set (unexpected upstream fields are dropped silently) and the upstream
// token bundle is embedded under the dedicated nested key.
func SignSession(user *models.UserAssertion, upstream *models.UpstreamTokenBundle, cfg *common.SSOConfig) (*IssuedSession, error) {
	now := time.Now()
	expiresAt := now.Add(cfg.GetSessionValidity())
	jti := uuid.New().String()

	claims := jwt.MapClaims{
		"jti":           jti,
		"sub":           user.UserID,
		"username":      user.Username,
		"name":          user.Name,
		"email":         user.Email,
		"phone":         user.Phone,
		"gender":        user.Gender,
		"avatar":        user.Avatar,
		"department_id": user.DepartmentID,
		"idp":           cfg.TrustedIdP,
		"iss":           issuerName,
		"iat":           now.Unix(),
		"exp":           expiresAt.Unix(),
		upstreamClaim: map[string]interface{}{
			"access_token":  upstream.AccessToken,
			"refresh_token": upstream.RefreshToken,
			"token_type":    upstream.TokenType,
			"expires_in":    upstream.ExpiresIn,
			"state":         upstream.State,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session credential: %w", err)
	}

	return &IssuedSession{
		Token:     signed,
		JTI:       jti,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseSession parses and validates a session credential string, returning
// its claims. Rejects any signing method other than HMAC.
func ParseSession(tokenString string, secret []byte) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// buildTokenBundle converts envelope fields into the upstream bundle.
// expires_in is parsed to integer seconds; an unparsable value is carried
// as zero since the bundle is opaque to this service.
func buildTokenBundle(env *models.CallbackEnvelope) *models.UpstreamTokenBundle {
	expiresIn, err := strconv.Atoi(env.ExpiresIn)
	if err != nil {
		expiresIn = 0
	}
	return &models.UpstreamTokenBundle{
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		TokenType:    env.TokenType,
		ExpiresIn:    expiresIn,
		State:        env.State,
	}
}
