// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MemberToken mints a signed access token the API accepts for the given
// member. The claim layout mirrors what the identity service issues.
func MemberToken(secret string, memberID uint, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": "tribunal-api",
		"aud": "tribunal-client",
		"sub": strconv.FormatUint(uint64(memberID), 10),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ExpiredMemberToken mints a token that is already past its expiry.
func ExpiredMemberToken(secret string, memberID uint) (string, error) {
	return MemberToken(secret, memberID, -time.Hour)
}
