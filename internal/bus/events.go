// SPDX-License-Identifier: Apache-2.0

package bus

// Topics published by the host platform's features. Each analytics listener
// subscribes to exactly one of these.
const (
	TopicNewsletterSubscribed = "newsletter.subscribed"
	TopicUserRegistered       = "user.registered"
	TopicSearchPerformed      = "search.performed"
	TopicRequestNotFound      = "request.not_found"
	TopicMailSent             = "mail.sent"
	TopicMailFailed           = "mail.failed"
)

// NewsletterSubscribed fires when a visitor joins a mailing list.
type NewsletterSubscribed struct {
	Context   string
	ListID    string
	SourceURL string
}

// UserRegistered fires after a new account is created.
type UserRegistered struct {
	UserID int64
	Page   string
	Source string
	Method string
}

// SearchPerformed fires after a site search completes.
type SearchPerformed struct {
	Term        string
	ResultCount int
	Referer     string
}

// RequestNotFound fires when a request ends in a 404.
type RequestNotFound struct {
	Path      string
	Referer   string
	UserAgent string
	RemoteIP  string
}

// MailSent and MailFailed fire from the platform's mail transport.
type MailSent struct {
	To      string
	Subject string
}

type MailFailed struct {
	To      string
	Subject string
	Error   string
}
