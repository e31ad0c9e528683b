package link_test

import (
	"testing"
	"time"

	"github.com/serroba/gatelink/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(mutate func(*link.Record)) *link.Record {
	record := &link.Record{
		ShortID:       "V1StGXR8",
		OriginalURL:   "https://example.com/doc",
		OwnerID:       "owner-1",
		OwnerEmail:    "owner@x.com",
		AllowedEmails: []string{"a@x.com", "b@x.com"},
		CreatedAt:     time.Now(),
	}

	if mutate != nil {
		mutate(record)
	}

	return record
}

func TestEvaluator_Allowlist(t *testing.T) {
	evaluator := link.NewEvaluator(false)
	now := time.Now()

	t.Run("allows allowlisted email", func(t *testing.T) {
		decision := evaluator.Evaluate(testRecord(nil), "a@x.com", now)

		assert.True(t, decision.Allowed)
		assert.Empty(t, decision.Reason)
	})

	t.Run("denies unknown email", func(t *testing.T) {
		decision := evaluator.Evaluate(testRecord(nil), "c@x.com", now)

		assert.False(t, decision.Allowed)
		assert.Equal(t, "your email is not authorized to access this link", decision.Reason)
	})

	t.Run("membership is case-sensitive by default", func(t *testing.T) {
		decision := evaluator.Evaluate(testRecord(nil), "A@X.com", now)

		assert.False(t, decision.Allowed)
	})

	t.Run("case folding makes membership case-insensitive", func(t *testing.T) {
		folding := link.NewEvaluator(true)

		decision := folding.Evaluate(testRecord(nil), "A@X.com", now)

		assert.True(t, decision.Allowed)
	})
}

func TestEvaluator_Window(t *testing.T) {
	evaluator := link.NewEvaluator(false)
	now := time.Now()

	t.Run("denies before activeFrom with the activation instant", func(t *testing.T) {
		from := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveFrom = &from })

		decision := evaluator.Evaluate(record, "a@x.com", now)

		require.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "not active yet")
		assert.Contains(t, decision.Reason, from.Format("15:04"))
	})

	t.Run("allows once activeFrom is reached", func(t *testing.T) {
		from := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveFrom = &from })

		decision := evaluator.Evaluate(record, "a@x.com", now.Add(2*time.Hour))

		assert.True(t, decision.Allowed)
	})

	t.Run("allows at exactly activeFrom", func(t *testing.T) {
		from := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveFrom = &from })

		decision := evaluator.Evaluate(record, "a@x.com", from)

		assert.True(t, decision.Allowed)
	})

	t.Run("allows before activeUntil", func(t *testing.T) {
		until := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveUntil = &until })

		decision := evaluator.Evaluate(record, "a@x.com", now)

		assert.True(t, decision.Allowed)
	})

	t.Run("denies at activeUntil with the expiry instant", func(t *testing.T) {
		until := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveUntil = &until })

		decision := evaluator.Evaluate(record, "a@x.com", until)

		require.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "expired")
		assert.Contains(t, decision.Reason, until.Format("15:04"))
	})

	t.Run("denies after activeUntil", func(t *testing.T) {
		until := now.Add(time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveUntil = &until })

		decision := evaluator.Evaluate(record, "a@x.com", now.Add(2*time.Hour))

		assert.False(t, decision.Allowed)
	})
}

func TestEvaluator_CheckOrder(t *testing.T) {
	evaluator := link.NewEvaluator(false)
	now := time.Now()

	t.Run("unauthorized email wins over expired window", func(t *testing.T) {
		until := now.Add(-time.Hour)
		record := testRecord(func(r *link.Record) { r.ActiveUntil = &until })

		decision := evaluator.Evaluate(record, "c@x.com", now)

		require.False(t, decision.Allowed)
		assert.Equal(t, "your email is not authorized to access this link", decision.Reason)
	})

	t.Run("not-yet-active wins over expired when both bounds fail", func(t *testing.T) {
		// Inverted window cannot be created through the registry, but the
		// evaluator still reports the first failing check.
		from := now.Add(time.Hour)
		until := now.Add(-time.Hour)
		record := testRecord(func(r *link.Record) {
			r.ActiveFrom = &from
			r.ActiveUntil = &until
		})

		decision := evaluator.Evaluate(record, "a@x.com", now)

		require.False(t, decision.Allowed)
		assert.Contains(t, decision.Reason, "not active yet")
	})
}
