package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourusername/editions-go/internal/domain"
	"go.uber.org/zap"
)

// EntitlementClaims are the claims of an editions access token
type EntitlementClaims struct {
	Entitlements []string `json:"ent"`
	jwt.RegisteredClaims
}

// StaticTokenProvider hands out a configured JWT. The token is inspected,
// not verified: expiry and the entitlement claim decide whether it is handed
// out for a download or an open.
type StaticTokenProvider struct {
	token       string
	entitlement string
	parser      *jwt.Parser
	logger      *zap.Logger
	now         func() time.Time
}

// NewStaticTokenProvider creates a token provider for a fixed token
func NewStaticTokenProvider(token, entitlement string, logger *zap.Logger) *StaticTokenProvider {
	return &StaticTokenProvider{
		token:       token,
		entitlement: entitlement,
		parser:      jwt.NewParser(),
		logger:      logger,
		now:         time.Now,
	}
}

// HasToken reports whether a token is configured
func (p *StaticTokenProvider) HasToken() bool {
	return p.token != ""
}

// Token returns the configured token if it grants access for trigger
func (p *StaticTokenProvider) Token(ctx context.Context, reason domain.TokenRequestReason, trigger domain.TokenRequestTrigger) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.logger.Debug("token requested",
		zap.String("reason", string(reason)),
		zap.String("trigger", string(trigger)))

	if p.token == "" {
		return "", &domain.AuthorizationError{Reason: domain.ReasonNoToken, Detail: "no token configured"}
	}

	claims := &EntitlementClaims{}
	if _, _, err := p.parser.ParseUnverified(p.token, claims); err != nil {
		return "", &domain.AuthorizationError{Reason: domain.ReasonNoAccess, Detail: fmt.Sprintf("malformed token: %v", err)}
	}

	if claims.ExpiresAt != nil && !p.now().Before(claims.ExpiresAt.Time) {
		return "", &domain.AuthorizationError{Reason: domain.ReasonNoAccess, Detail: "token expired"}
	}

	if trigger == domain.TriggerFeed || p.entitlement == "" {
		return p.token, nil
	}

	for _, granted := range claims.Entitlements {
		if granted == p.entitlement {
			return p.token, nil
		}
	}
	return "", &domain.AuthorizationError{
		Reason: domain.ReasonNoEntitlements,
		Detail: fmt.Sprintf("token lacks entitlement %q", p.entitlement),
	}
}

// NewDevToken signs a token granting entitlements until ttl elapses. It is
// used when no token is configured so the demo can download.
func NewDevToken(subject string, entitlements []string, ttl time.Duration, key []byte) (string, error) {
	now := time.Now()
	claims := EntitlementClaims{
		Entitlements: entitlements,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign dev token: %w", err)
	}
	return signed, nil
}
