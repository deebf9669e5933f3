package utils // package utils provides helpers for token issuing, hashing and input checks

import (
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are sent in the Authorization header as "Bearer <token>".
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the decoded view of an access token.
type Claims struct {
    UserID   uint64
    Username string
    Email    string
    Role     string
}

// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries the user id in "sub" plus username, email and role so the
// verify endpoint can answer without a round trip when the account is
// still active.
func NewAccessToken(secret string, c Claims, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":      strconv.FormatUint(c.UserID, 10),
        "username": c.Username,
        "email":    c.Email,
        "role":     c.Role,
        "exp":      exp.Unix(),
        "iat":      now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
// Only HMAC signing methods are accepted.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }
    var c Claims
    switch sub := mc["sub"].(type) {
    case string:
        n, err := strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return Claims{}, ErrInvalidToken
        }
        c.UserID = n
    case float64:
        // JWT numeric values are decoded as float64
        c.UserID = uint64(sub)
    default:
        return Claims{}, ErrInvalidToken
    }
    c.Username, _ = mc["username"].(string)
    c.Email, _ = mc["email"].(string)
    c.Role, _ = mc["role"].(string)
    return c, nil
}
