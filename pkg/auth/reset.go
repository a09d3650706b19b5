package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shashiranjanraj/carby/pkg/crypt"
)

const resetPurpose = "password-reset"

// ResetTTL is how long a reset link stays valid.
const ResetTTL = 30 * time.Minute

// ErrInvalidResetToken is returned for expired, forged or stale tokens.
var ErrInvalidResetToken = errors.New("auth: invalid reset token")

// ResetClaims is the typed reset-token payload. Fingerprint ties the token
// to the password hash it was issued against, so changing the password
// voids outstanding links.
type ResetClaims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ResetTokens signs and verifies password-reset tokens.
type ResetTokens struct {
	secret []byte
	now    func() time.Time
}

// NewResetTokens creates a signer keyed by the application key.
func NewResetTokens(appKey string) *ResetTokens {
	return &ResetTokens{secret: []byte(appKey), now: time.Now}
}

// Issue creates a signed token for userID bound to its current password hash.
func (t *ResetTokens) Issue(userID uint, passwordHash string) (string, error) {
	now := t.now()
	claims := ResetClaims{
		Purpose:     resetPurpose,
		Fingerprint: crypt.Hash(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses token and returns the user id it was issued for. The
// lookup callback returns the user's current password hash.
func (t *ResetTokens) Verify(token string, lookup func(userID uint) (string, error)) (uint, error) {
	parsed, err := jwt.ParseWithClaims(token, &ResetClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return 0, ErrInvalidResetToken
	}

	claims, ok := parsed.Claims.(*ResetClaims)
	if !ok || !parsed.Valid || claims.Purpose != resetPurpose {
		return 0, ErrInvalidResetToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidResetToken
	}

	hash, err := lookup(uint(id))
	if err != nil || crypt.Hash(hash) != claims.Fingerprint {
		return 0, ErrInvalidResetToken
	}
	return uint(id), nil
}
