package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/serroba/gatelink/internal/messaging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenGenerator mints opaque capability tokens.
type TokenGenerator func() string

// Config holds the tunable authentication behavior.
type Config struct {
	// JWTSecret signs session tokens (HS256).
	JWTSecret []byte

	// ChallengeTTL bounds challenge validity. Zero disables expiry, which
	// matches the historical behavior; 15 minutes is a sane hardened value.
	ChallengeTTL time.Duration

	// SessionTTL bounds session token validity. Zero means tokens never
	// expire and sessions end only on explicit sign-out.
	SessionTTL time.Duration
}

// Service issues passwordless sign-in challenges and completes them into
// authenticated identities.
type Service struct {
	challenges    ChallengeStore
	publishIssued messaging.Publish[ChallengeIssuedEvent]
	generateToken TokenGenerator
	cfg           Config
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates an auth service.
func NewService(
	challenges ChallengeStore,
	publishIssued messaging.Publish[ChallengeIssuedEvent],
	generateToken TokenGenerator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		challenges:    challenges,
		publishIssued: publishIssued,
		generateToken: generateToken,
		cfg:           cfg,
		now:           time.Now,
		logger:        logger,
	}
}

// IssueChallenge mints a one-time capability bound to email, tracks it as the
// pending challenge for that address and dispatches it for delivery.
// Reissuing before completion supersedes the tracked challenge; the previous
// capability stops verifying. Delivery failures surface as ErrDelivery.
func (s *Service) IssueChallenge(ctx context.Context, email, requestedFrom string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	token := s.generateToken()

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash capability: %w", err)
	}

	now := s.now().UTC()
	challenge := &Challenge{
		Email:     email,
		TokenHash: hash,
		IssuedAt:  now,
	}

	if s.cfg.ChallengeTTL > 0 {
		challenge.ExpiresAt = now.Add(s.cfg.ChallengeTTL)
	}

	if err := s.challenges.Put(ctx, challenge); err != nil {
		return fmt.Errorf("track challenge: %w", err)
	}

	event := &ChallengeIssuedEvent{
		Email:         email,
		Token:         token,
		RequestedFrom: requestedFrom,
		IssuedAt:      now,
	}

	if err := s.publishIssued(event); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	s.logger.Info("sign-in challenge issued", zap.String("email", email))

	return nil
}

// CompleteChallenge verifies a presented capability against the pending
// challenge for email. On success the challenge is consumed (one-shot), and
// an identity plus a signed session token are returned.
func (s *Service) CompleteChallenge(ctx context.Context, email, capability string) (Identity, string, error) {
	challenge, err := s.challenges.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNoChallenge) {
			return Identity{}, "", ErrNoChallenge
		}

		return Identity{}, "", fmt.Errorf("load challenge: %w", err)
	}

	if challenge.Expired(s.now()) {
		_ = s.challenges.Delete(ctx, email)

		return Identity{}, "", ErrChallengeInvalid
	}

	if err := bcrypt.CompareHashAndPassword(challenge.TokenHash, []byte(capability)); err != nil {
		return Identity{}, "", ErrChallengeInvalid
	}

	if err := s.challenges.Delete(ctx, email); err != nil {
		return Identity{}, "", fmt.Errorf("consume challenge: %w", err)
	}

	identity := Identity{ID: uuid.NewString(), Email: email}

	token, err := s.mintToken(identity)
	if err != nil {
		return Identity{}, "", fmt.Errorf("mint session token: %w", err)
	}

	s.logger.Info("sign-in completed",
		zap.String("email", email),
		zap.String("identityId", identity.ID),
	)

	return identity, token, nil
}

// VerifyToken parses and validates a session token, recovering the identity
// it was minted for.
func (s *Service) VerifyToken(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}

		return s.cfg.JWTSecret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)

	if sub == "" || email == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{ID: sub, Email: email}, nil
}

func (s *Service) mintToken(identity Identity) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   identity.ID,
		"email": identity.Email,
		"iat":   now.Unix(),
	}

	if s.cfg.SessionTTL > 0 {
		claims["exp"] = now.Add(s.cfg.SessionTTL).Unix()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
}
