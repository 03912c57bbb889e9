package session

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/DownstreamWealth/portal/internal/domain"
)

// Claims is the private claim set carried by session tokens.
type Claims struct {
	Status string `json:"status"`
}

// JWTResolver validates HS256-signed session tokens stored in a cookie.
type JWTResolver struct {
	cookie string
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTResolver creates a resolver. An empty issuer disables the issuer check.
func NewJWTResolver(cookie, secret, issuer string) *JWTResolver {
	return &JWTResolver{
		cookie: cookie,
		secret: []byte(secret),
		issuer: issuer,
		leeway: gojwt.DefaultLeeway,
	}
}

func (r *JWTResolver) Resolve(req *http.Request) (Identity, error) {
	raw, err := cookieValue(req, r.cookie)
	if err != nil {
		return Identity{}, err
	}

	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: parse token: %v", domain.ErrUnauthorized, err)
	}

	var std gojwt.Claims
	var custom Claims
	if err := parsed.Claims(r.secret, &std, &custom); err != nil {
		return Identity{}, fmt.Errorf("%w: verify token: %v", domain.ErrUnauthorized, err)
	}

	expected := gojwt.Expected{Issuer: r.issuer, Time: time.Now()}
	if err := std.ValidateWithLeeway(expected, r.leeway); err != nil {
		return Identity{}, fmt.Errorf("%w: validate claims: %v", domain.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(std.Subject), 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("%w: invalid subject claim", domain.ErrUnauthorized)
	}

	return Identity{UserID: userID, Status: custom.Status}, nil
}
