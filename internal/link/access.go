package link

import (
	"fmt"
	"strings"
	"time"
)

// Decision is the outcome of an access evaluation. Allowed=false always
// carries a non-empty Reason; Allowed=true never does.
type Decision struct {
	Allowed bool
	Reason  string
}

// reasonTimeLayout renders window instants in denial reasons.
const reasonTimeLayout = "Jan 2, 2006 at 15:04 MST"

// Evaluator decides whether a visitor email may follow a link at a given
// instant. It is a pure function of (record, email, now); checks run in a
// fixed order and the first failing check wins, so a record failing several
// checks reports the first.
type Evaluator struct {
	caseFold bool
}

// NewEvaluator creates an evaluator. When caseFold is true the allowlist
// membership test is case-insensitive; the default exact match deliberately
// mirrors the historical behavior.
func NewEvaluator(caseFold bool) *Evaluator {
	return &Evaluator{caseFold: caseFold}
}

// Evaluate checks, in order: allowlist membership, window start, window end.
func (e *Evaluator) Evaluate(record *Record, visitorEmail string, now time.Time) Decision {
	if !e.allowed(record, visitorEmail) {
		return Decision{Reason: "your email is not authorized to access this link"}
	}

	if record.ActiveFrom != nil && now.Before(*record.ActiveFrom) {
		return Decision{Reason: fmt.Sprintf(
			"this link is not active yet. It will become available on %s",
			record.ActiveFrom.Format(reasonTimeLayout),
		)}
	}

	if record.ActiveUntil != nil && !now.Before(*record.ActiveUntil) {
		return Decision{Reason: fmt.Sprintf(
			"this link has expired on %s",
			record.ActiveUntil.Format(reasonTimeLayout),
		)}
	}

	return Decision{Allowed: true}
}

func (e *Evaluator) allowed(record *Record, visitorEmail string) bool {
	if e.caseFold {
		visitorEmail = strings.ToLower(visitorEmail)
	}

	for _, email := range record.AllowedEmails {
		if e.caseFold {
			email = strings.ToLower(email)
		}

		if email == visitorEmail {
			return true
		}
	}

	return false
}
