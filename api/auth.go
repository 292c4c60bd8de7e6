package api

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrMissingToken = errors.New("missing access token")

// Claims 是存取權杖的內容，Subject 為使用者 id
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity 是通過驗證的使用者
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// Authenticator 驗證由外部登入服務簽發的 Ed25519 JWT
type Authenticator struct {
	key    ed25519.PublicKey
	parser *jwt.Parser
}

func NewAuthenticator(config AuthConfig) (*Authenticator, error) {
	if len(config.PublicKey) != ed25519.PublicKeySize {
		return nil, errors.New("invalid ed25519 public key")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	return &Authenticator{
		key:    config.PublicKey,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (a *Authenticator) Parse(tokenString string) (Identity, error) {
	const op = "Authenticator.Parse"
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("[%s] Fail to parse token, err=%w", op, err)
	}
	if !token.Valid {
		return Identity{}, fmt.Errorf("[%s] token is invalid", op)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return Identity{}, fmt.Errorf("[%s] invalid subject %q", op, claims.Subject)
	}
	return Identity{UserID: userID, Username: claims.Username}, nil
}

// Identify 從 access_token cookie 或 Authorization header 取出權杖並驗證，cookie 優先
// 沒有權杖時回傳 ErrMissingToken
func (a *Authenticator) Identify(accessToken, authorization *string) (Identity, error) {
	tokenString := lo.FromPtr(accessToken)
	if tokenString == "" {
		var ok bool
		tokenString, ok = strings.CutPrefix(lo.FromPtr(authorization), "Bearer ")
		if !ok || tokenString == "" {
			return Identity{}, ErrMissingToken
		}
	}
	return a.Parse(tokenString)
}
