package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/gatelink/internal/auth"
	"go.uber.org/zap"
)

// AuthHandler handles the passwordless sign-in endpoints.
type AuthHandler struct {
	auth   *auth.Service
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

func (h *AuthHandler) IssueChallenge(ctx context.Context, req *IssueChallengeRequest) (*struct{}, error) {
	meta := RequestMetaFromContext(ctx)

	err := h.auth.IssueChallenge(ctx, req.Body.Email, meta.ClientIP)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			return nil, huma.Error400BadRequest("malformed email address")
		case errors.Is(err, auth.ErrDelivery):
			h.logger.Error("challenge delivery failed", zap.Error(err))

			return nil, huma.Error503ServiceUnavailable("could not dispatch sign-in email, try again")
		default:
			h.logger.Error("failed to issue challenge", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to issue challenge")
		}
	}

	return nil, nil
}

func (h *AuthHandler) CompleteChallenge(ctx context.Context, req *CompleteChallengeRequest) (*CompleteChallengeResponse, error) {
	session := auth.NewSession(h.auth)

	identity, token, err := session.Complete(ctx, req.Body.Email, req.Body.Token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoChallenge):
			return nil, huma.Error401Unauthorized("no pending sign-in challenge for this email")
		case errors.Is(err, auth.ErrChallengeInvalid):
			return nil, huma.Error401Unauthorized("sign-in link is invalid or has expired")
		default:
			h.logger.Error("failed to complete challenge", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to complete sign-in")
		}
	}

	resp := &CompleteChallengeResponse{}
	resp.Body.Token = token
	resp.Body.Identity.ID = identity.ID
	resp.Body.Identity.Email = identity.Email

	return resp, nil
}

// SignOut ends the request-scoped session. There is no server-side token
// revocation list; the client is expected to discard its token, and a
// retained token keeps verifying until it expires.
func (h *AuthHandler) SignOut(ctx context.Context, _ *struct{}) (*struct{}, error) {
	session := auth.NewSession(h.auth)
	session.Restore(ctx, AuthTokenFromContext(ctx))
	session.SignOut()

	return nil, nil
}
