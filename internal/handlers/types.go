package handlers

import "time"

// CreateLinkRequest is the request body for creating a shortened link.
type CreateLinkRequest struct {
	Body struct {
		OriginalURL   string     `doc:"The URL to shorten"                           example:"https://example.com/doc"   json:"originalUrl"`
		AllowedEmails []string   `doc:"Emails permitted to follow the link"          example:"[\"a@x.com\",\"b@x.com\"]" json:"allowedEmails" minItems:"1"`
		ActiveFrom    *time.Time `doc:"Optional instant the link becomes usable"     json:"activeFrom,omitempty"`
		ActiveUntil   *time.Time `doc:"Optional instant the link stops being usable" json:"activeUntil,omitempty"`
	}
}

// CreateLinkResponse is the response for a successfully created link.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		ShortID  string `doc:"The short id"       example:"V1StGXR8"                       json:"shortId"`
		ShortURL string `doc:"The full short URL" example:"http://localhost:8888/V1StGXR8" json:"shortUrl"`
	}
}

// LinkSummary is one owned link in a listing.
type LinkSummary struct {
	ShortID       string     `json:"shortId"`
	OriginalURL   string     `json:"originalUrl"`
	AllowedEmails []string   `json:"allowedEmails"`
	CreatedAt     time.Time  `json:"createdAt"`
	ActiveFrom    *time.Time `json:"activeFrom,omitempty"`
	ActiveUntil   *time.Time `json:"activeUntil,omitempty"`
}

// ListLinksResponse is the response for the owner listing endpoint.
type ListLinksResponse struct {
	Body struct {
		Links []LinkSummary `json:"links"`
	}
}

// RedirectRequest is the request for following a short link.
type RedirectRequest struct {
	ShortID string `doc:"The short id" example:"V1StGXR8" path:"shortId"`
}

// RedirectResponse redirects to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// IssueChallengeRequest asks for a sign-in link to be emailed.
type IssueChallengeRequest struct {
	Body struct {
		Email string `doc:"Address to send the sign-in link to" example:"a@x.com" format:"email" json:"email"`
	}
}

// CompleteChallengeRequest presents an emailed capability to finish sign-in.
type CompleteChallengeRequest struct {
	Body struct {
		Email string `doc:"Address the challenge was issued to"    example:"a@x.com" format:"email" json:"email"`
		Token string `doc:"Capability token from the sign-in link" json:"token"`
	}
}

// CompleteChallengeResponse carries the session token for the new identity.
type CompleteChallengeResponse struct {
	Body struct {
		Token    string `doc:"Bearer token for subsequent requests" json:"token"`
		Identity struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"identity"`
	}
}
