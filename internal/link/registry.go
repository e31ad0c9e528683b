package link

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Generator produces short ids.
type Generator func() string

// maxGenerateAttempts bounds the regenerate-on-collision loop. Collisions are
// vanishingly rare at 8 characters, so hitting the bound indicates a store
// problem rather than bad luck.
const maxGenerateAttempts = 3

// Registry creates link records and resolves short ids to records.
type Registry struct {
	store    Store
	generate Generator
	caseFold bool
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates a link registry. When caseFold is true, allowlist
// entries are lowercased at creation time.
func NewRegistry(store Store, generator Generator, caseFold bool, logger *zap.Logger) *Registry {
	return &Registry{
		store:    store,
		generate: generator,
		caseFold: caseFold,
		now:      time.Now,
		logger:   logger,
	}
}

// CreateParams carries the caller-supplied fields of a new link.
type CreateParams struct {
	OriginalURL   string
	AllowedEmails []string
	ActiveFrom    *time.Time
	ActiveUntil   *time.Time
}

// Create validates params, generates a short id and persists a new record on
// behalf of owner. A short id collision is retried with a fresh id; the
// store's uniqueness constraint is the authoritative guard.
func (r *Registry) Create(ctx context.Context, owner Owner, params CreateParams) (*Record, error) {
	allowed, err := r.validate(params)
	if err != nil {
		return nil, err
	}

	record := &Record{
		OriginalURL:   params.OriginalURL,
		OwnerID:       owner.ID,
		OwnerEmail:    owner.Email,
		AllowedEmails: allowed,
		CreatedAt:     r.now().UTC(),
		ActiveFrom:    params.ActiveFrom,
		ActiveUntil:   params.ActiveUntil,
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		record.ShortID = ShortID(r.generate())

		err = r.store.Save(ctx, record)
		if err == nil {
			r.logger.Info("link created",
				zap.String("shortId", string(record.ShortID)),
				zap.String("ownerEmail", record.OwnerEmail),
			)

			return record, nil
		}

		if !errors.Is(err, ErrCodeExists) {
			return nil, fmt.Errorf("save link: %w", err)
		}

		r.logger.Warn("short id collision, regenerating",
			zap.String("shortId", string(record.ShortID)),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("save link: %w", err)
}

// Resolve looks up a record by exact short id match.
func (r *Registry) Resolve(ctx context.Context, id ShortID) (*Record, error) {
	record, err := r.store.GetByShortID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("resolve link: %w", err)
	}

	return record, nil
}

// ListForOwner returns all records created by the given owner.
// Callers needing a stable display order must sort; createdAt descending is
// the suggested default.
func (r *Registry) ListForOwner(ctx context.Context, ownerID string) ([]*Record, error) {
	records, err := r.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return records, nil
}

func (r *Registry) validate(params CreateParams) ([]string, error) {
	u, err := url.Parse(params.OriginalURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, &ValidationError{Field: "originalUrl", Reason: "must be an absolute URL"}
	}

	if len(params.AllowedEmails) == 0 {
		return nil, &ValidationError{Field: "allowedEmails", Reason: "must not be empty"}
	}

	allowed := make([]string, 0, len(params.AllowedEmails))

	for _, email := range params.AllowedEmails {
		if !validEmail(email) {
			return nil, &ValidationError{Field: "allowedEmails", Reason: fmt.Sprintf("%q is not a valid address", email)}
		}

		if r.caseFold {
			email = strings.ToLower(email)
		}

		allowed = append(allowed, email)
	}

	if params.ActiveFrom != nil && params.ActiveUntil != nil && !params.ActiveFrom.Before(*params.ActiveUntil) {
		return nil, &ValidationError{Field: "activeFrom", Reason: "must be before activeUntil"}
	}

	return allowed, nil
}

// validEmail checks the basic local@domain.tld shape.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}

	domain := s[strings.LastIndex(s, "@")+1:]

	return strings.Contains(domain, ".")
}
