package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jaevor/go-nanoid"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/handlers"
	"github.com/serroba/gatelink/internal/link"
	"github.com/serroba/gatelink/internal/messaging"
	"github.com/serroba/gatelink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	registry    *link.Registry
	authService *auth.Service
	links       *handlers.LinkHandler
	auth        *handlers.AuthHandler
	events      []auth.ChallengeIssuedEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{}

	gen, err := nanoid.Standard(8)
	require.NoError(t, err)

	f.registry = link.NewRegistry(store.NewMemoryLinkStore(), gen, false, zap.NewNop())

	publish := messaging.Publish[auth.ChallengeIssuedEvent](func(event *auth.ChallengeIssuedEvent) error {
		f.events = append(f.events, *event)

		return nil
	})

	capability, err := nanoid.Standard(21)
	require.NoError(t, err)

	f.authService = auth.NewService(
		store.NewMemoryChallengeStore(),
		publish,
		capability,
		auth.Config{JWTSecret: []byte("test-secret")},
		zap.NewNop(),
	)

	evaluator := link.NewEvaluator(false)

	f.links = handlers.NewLinkHandler(f.registry, evaluator, f.authService, "http://localhost:8888", zap.NewNop())
	f.auth = handlers.NewAuthHandler(f.authService, zap.NewNop())

	return f
}

// signIn issues and completes a challenge, returning the bearer token.
func (f *fixture) signIn(t *testing.T, email string) (auth.Identity, string) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, f.authService.IssueChallenge(ctx, email, ""))

	identity, token, err := f.authService.CompleteChallenge(ctx, email, f.events[len(f.events)-1].Token)
	require.NoError(t, err)

	return identity, token
}

func (f *fixture) authedContext(t *testing.T, email string) context.Context {
	t.Helper()

	identity, token := f.signIn(t, email)

	ctx := handlers.ContextWithIdentity(context.Background(), identity)

	return handlers.ContextWithAuthToken(ctx, token)
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()

	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, status, se.GetStatus())
}

func createRequest(mutate func(*handlers.CreateLinkRequest)) *handlers.CreateLinkRequest {
	req := &handlers.CreateLinkRequest{}
	req.Body.OriginalURL = "https://example.com/doc"
	req.Body.AllowedEmails = []string{"a@x.com"}

	if mutate != nil {
		mutate(req)
	}

	return req
}

func TestCreateLink(t *testing.T) {
	t.Run("creates a link for the signed-in owner", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.authedContext(t, "owner@x.com")

		resp, err := f.links.CreateLink(ctx, createRequest(nil))

		require.NoError(t, err)
		assert.Len(t, resp.Body.ShortID, 8)
		assert.Equal(t, "http://localhost:8888/"+resp.Body.ShortID, resp.Body.ShortURL)
		assert.Equal(t, resp.Body.ShortURL, resp.Headers.Location)
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.links.CreateLink(context.Background(), createRequest(nil))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("rejects an invalid target url", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.authedContext(t, "owner@x.com")

		resp, err := f.links.CreateLink(ctx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.OriginalURL = "/just/a/path"
		}))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("rejects an empty allowlist", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.authedContext(t, "owner@x.com")

		resp, err := f.links.CreateLink(ctx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.AllowedEmails = nil
		}))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("rejects an inverted validity window", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.authedContext(t, "owner@x.com")

		now := time.Now()
		from := now.Add(2 * time.Hour)
		until := now.Add(time.Hour)

		resp, err := f.links.CreateLink(ctx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.ActiveFrom = &from
			req.Body.ActiveUntil = &until
		}))

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
	})
}

func TestListLinks(t *testing.T) {
	t.Run("lists only the caller's links newest first", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")
		otherCtx := f.authedContext(t, "other@x.com")

		first, err := f.links.CreateLink(ownerCtx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.OriginalURL = "https://example.com/first"
		}))
		require.NoError(t, err)

		time.Sleep(time.Millisecond)

		second, err := f.links.CreateLink(ownerCtx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.OriginalURL = "https://example.com/second"
		}))
		require.NoError(t, err)

		_, err = f.links.CreateLink(otherCtx, createRequest(nil))
		require.NoError(t, err)

		resp, err := f.links.ListLinks(ownerCtx, nil)

		require.NoError(t, err)
		require.Len(t, resp.Body.Links, 2)
		assert.Equal(t, second.Body.ShortID, resp.Body.Links[0].ShortID)
		assert.Equal(t, first.Body.ShortID, resp.Body.Links[1].ShortID)
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.links.ListLinks(context.Background(), nil)

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("returns an empty list for a fresh owner", func(t *testing.T) {
		f := newFixture(t)
		ctx := f.authedContext(t, "owner@x.com")

		resp, err := f.links.ListLinks(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, resp.Body.Links)
	})
}

func TestRedirect(t *testing.T) {
	t.Run("redirects an allowlisted visitor", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		created, err := f.links.CreateLink(ownerCtx, createRequest(nil))
		require.NoError(t, err)

		_, token := f.signIn(t, "a@x.com")
		ctx := handlers.ContextWithAuthToken(context.Background(), token)

		resp, err := f.links.Redirect(ctx, &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "https://example.com/doc", resp.Headers.Location)
	})

	t.Run("returns 404 for an unknown short id", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.links.Redirect(context.Background(), &handlers.RedirectRequest{ShortID: "notfound1"})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("returns 401 for an anonymous visitor", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		created, err := f.links.CreateLink(ownerCtx, createRequest(nil))
		require.NoError(t, err)

		resp, err := f.links.Redirect(context.Background(), &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("returns 403 for an email outside the allowlist", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		created, err := f.links.CreateLink(ownerCtx, createRequest(nil))
		require.NoError(t, err)

		_, token := f.signIn(t, "intruder@x.com")
		ctx := handlers.ContextWithAuthToken(context.Background(), token)

		resp, err := f.links.Redirect(ctx, &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusForbidden)
		assert.Contains(t, err.Error(), "not authorized")
	})

	t.Run("returns 403 before the link becomes active", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		from := time.Now().Add(time.Hour)
		created, err := f.links.CreateLink(ownerCtx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.ActiveFrom = &from
		}))
		require.NoError(t, err)

		_, token := f.signIn(t, "a@x.com")
		ctx := handlers.ContextWithAuthToken(context.Background(), token)

		resp, err := f.links.Redirect(ctx, &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusForbidden)
		assert.Contains(t, err.Error(), "not active yet")
	})

	t.Run("returns 403 after the link has expired", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		from := time.Now().Add(-2 * time.Hour)
		until := time.Now().Add(-time.Hour)
		created, err := f.links.CreateLink(ownerCtx, createRequest(func(req *handlers.CreateLinkRequest) {
			req.Body.ActiveFrom = &from
			req.Body.ActiveUntil = &until
		}))
		require.NoError(t, err)

		_, token := f.signIn(t, "a@x.com")
		ctx := handlers.ContextWithAuthToken(context.Background(), token)

		resp, err := f.links.Redirect(ctx, &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusForbidden)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("a stale token is treated as anonymous", func(t *testing.T) {
		f := newFixture(t)
		ownerCtx := f.authedContext(t, "owner@x.com")

		created, err := f.links.CreateLink(ownerCtx, createRequest(nil))
		require.NoError(t, err)

		ctx := handlers.ContextWithAuthToken(context.Background(), "not-a-valid-token")

		resp, err := f.links.Redirect(ctx, &handlers.RedirectRequest{ShortID: created.Body.ShortID})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusUnauthorized)
	})
}
