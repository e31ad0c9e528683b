package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link and auth endpoints.
func RegisterRoutes(api huma.API, linkHandler *LinkHandler, authHandler *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create an access-controlled short link",
		Description:   "Creates a shortened URL usable only by the allowlisted emails, optionally inside an activation window.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, linkHandler.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/links",
		Summary:     "List the caller's links",
		Description: "Returns all links created by the authenticated identity, newest first.",
		Tags:        []string{"Links"},
	}, linkHandler.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{shortId}",
		Summary:     "Follow a short link",
		Description: "Redirects to the original URL when the authenticated visitor is allowlisted and the link is inside its activation window.",
		Tags:        []string{"Links"},
	}, linkHandler.Redirect)

	huma.Register(api, huma.Operation{
		OperationID:   "issue-challenge",
		Method:        http.MethodPost,
		Path:          "/api/auth/challenge",
		Summary:       "Request a sign-in link",
		Description:   "Emails a one-time sign-in capability to the given address. Reissuing supersedes any pending challenge for that address.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusAccepted,
	}, authHandler.IssueChallenge)

	huma.Register(api, huma.Operation{
		OperationID: "complete-challenge",
		Method:      http.MethodPost,
		Path:        "/api/auth/complete",
		Summary:     "Complete sign-in",
		Description: "Verifies an emailed capability and returns a session token for the authenticated identity.",
		Tags:        []string{"Auth"},
	}, authHandler.CompleteChallenge)

	huma.Register(api, huma.Operation{
		OperationID:   "sign-out",
		Method:        http.MethodPost,
		Path:          "/api/auth/signout",
		Summary:       "Sign out",
		Description:   "Ends the caller's session. Tokens are not revoked server-side: the client must discard its token, which remains verifiable until it expires. Idempotent when already signed out.",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusNoContent,
	}, authHandler.SignOut)
}
