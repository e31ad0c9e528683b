package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/flow"
	"github.com/serroba/gatelink/internal/link"
	"go.uber.org/zap"
)

// LinkHandler handles link creation, listing and redirects.
type LinkHandler struct {
	registry  *link.Registry
	evaluator *link.Evaluator
	auth      *auth.Service
	baseURL   string
	logger    *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	registry *link.Registry,
	evaluator *link.Evaluator,
	authService *auth.Service,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		registry:  registry,
		evaluator: evaluator,
		auth:      authService,
		baseURL:   baseURL,
		logger:    logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	record, err := h.registry.Create(ctx, link.Owner{ID: identity.ID, Email: identity.Email}, link.CreateParams{
		OriginalURL:   req.Body.OriginalURL,
		AllowedEmails: req.Body.AllowedEmails,
		ActiveFrom:    req.Body.ActiveFrom,
		ActiveUntil:   req.Body.ActiveUntil,
	})
	if err != nil {
		if link.IsValidation(err) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("failed to create link", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to save link")
	}

	shortURL := fmt.Sprintf("%s/%s", h.baseURL, record.ShortID)

	resp := &CreateLinkResponse{}
	resp.Headers.Location = shortURL
	resp.Body.ShortID = string(record.ShortID)
	resp.Body.ShortURL = shortURL

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	records, err := h.registry.ListForOwner(ctx, identity.ID)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to list links")
	}

	// Newest first for display
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkSummary, 0, len(records))

	for _, record := range records {
		resp.Body.Links = append(resp.Body.Links, LinkSummary{
			ShortID:       string(record.ShortID),
			OriginalURL:   record.OriginalURL,
			AllowedEmails: record.AllowedEmails,
			CreatedAt:     record.CreatedAt,
			ActiveFrom:    record.ActiveFrom,
			ActiveUntil:   record.ActiveUntil,
		})
	}

	return resp, nil
}

// Redirect runs the redirect flow for one request-scoped session. An
// anonymous visitor gets 401 with a hint to request a sign-in challenge; the
// flow itself distinguishes unknown ids from denials.
func (h *LinkHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	session := auth.NewSession(h.auth)
	session.Restore(ctx, AuthTokenFromContext(ctx))

	f := flow.New(h.registry, h.evaluator, session, flow.Config{WaitForAuth: false}, h.logger)

	outcome, err := f.Run(ctx, link.ShortID(req.ShortID))
	if err != nil {
		h.logger.Error("redirect flow failed",
			zap.String("shortId", req.ShortID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to resolve link")
	}

	switch outcome.State {
	case flow.StateNotFound:
		return nil, huma.Error404NotFound("link does not exist")
	case flow.StateNeedsAuth:
		return nil, huma.Error401Unauthorized("sign-in required: request a challenge at /api/auth/challenge")
	case flow.StateDenied:
		return nil, huma.Error403Forbidden(outcome.Reason)
	case flow.StateRedirecting:
		resp := &RedirectResponse{Status: http.StatusFound}
		resp.Headers.Location = outcome.Location

		return resp, nil
	default:
		return nil, huma.Error500InternalServerError("unexpected flow state")
	}
}
