package security

import (
	"errors"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

// InitJWT configures verification of tokens issued by the identity provider.
func InitJWT() {
	TokenAuth = NewTokenAuth(config.AppConfig.JWTKey)
}

func NewTokenAuth(key []byte) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", key, nil)
}

// GenerateToken signs a token the way the identity provider does. The server
// never issues tokens itself; this backs the CLI and tests.
func GenerateToken(auth *jwtauth.JWTAuth, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	_, tokenString, err := auth.Encode(claims)
	return tokenString, err
}

// PrincipalFromClaims reads the caller out of verified claims. The subject
// claim wins over the legacy user_id claim; a missing role means a regular user.
func PrincipalFromClaims(claims map[string]interface{}) (model.Principal, error) {
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return model.Principal{}, err
	}
	role, _ := claims["role"].(string)
	if role != model.RoleAdmin {
		role = model.RoleUser
	}
	return model.Principal{UserID: userID, Role: role}, nil
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	if id, ok := claims["sub"].(string); ok && id != "" {
		return id, nil
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	return "", errors.New("sub claim is missing or not a string")
}
