// Package mailbox wraps the Gmail API surface the reply pipeline consumes:
// listing the history delta since a cursor and fetching full messages with
// their decoded text bodies.
package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrAuthExpired reports that the account's access token was rejected.
// Callers treat it as "reconnect required", not as a processing failure.
var ErrAuthExpired = errors.New("mailbox: access token expired or revoked")

// Ref is a lightweight reference to a message seen in a history delta.
type Ref struct {
	ID       string
	ThreadID string
}

// Message is a fetched message reduced to the fields the pipeline reads.
// BodyPlain and BodyHTML are empty strings when the MIME tree carries no
// part of the corresponding type.
type Message struct {
	ID         string
	ThreadID   string
	FromEmail  string
	FromName   string
	Subject    string
	BodyPlain  string
	BodyHTML   string
	ReceivedAt time.Time
}

// Client talks to the Gmail API for a single account.
type Client struct {
	svc *gmail.Service
}

// NewClient builds a Client authenticated with a bearer access token.
func NewClient(ctx context.Context, accessToken string) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// HistoryDelta returns references to messages added to the inbox after
// startCursor, in delivery order, together with the latest cursor observed.
// Only additions labeled INBOX count; drafts, sent mail, and label churn in
// the history stream are skipped.
func (c *Client) HistoryDelta(ctx context.Context, startCursor uint64) ([]Ref, uint64, error) {
	var (
		refs      []Ref
		latest    = startCursor
		pageToken string
		seen      = map[string]struct{}{}
	)
	for {
		call := c.svc.Users.History.List("me").
			StartHistoryId(startCursor).
			HistoryTypes("messageAdded").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, 0, wrapAPIError(err)
		}
		if resp.HistoryId > latest {
			latest = resp.HistoryId
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				m := added.Message
				if m == nil || !hasLabel(m.LabelIds, "INBOX") {
					continue
				}
				// Gmail repeats a message across history records when
				// several changes touch it.
				if _, dup := seen[m.Id]; dup {
					continue
				}
				seen[m.Id] = struct{}{}
				refs = append(refs, Ref{ID: m.Id, ThreadID: m.ThreadId})
			}
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return refs, latest, nil
}

// FetchMessage retrieves a full message and extracts its headers and text
// bodies.
func (c *Client) FetchMessage(ctx context.Context, id string) (*Message, error) {
	m, err := c.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(err)
	}

	msg := &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
	}
	if m.InternalDate > 0 {
		msg.ReceivedAt = time.UnixMilli(m.InternalDate).UTC()
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				msg.FromEmail, msg.FromName = ParseAddress(h.Value)
			case "subject":
				msg.Subject = h.Value
			}
		}
		msg.BodyPlain, msg.BodyHTML = ExtractBody(m.Payload)
	}
	return msg, nil
}

// ParseAddress splits an RFC 5322 address header into email and display
// name. A header that fails to parse is returned verbatim as the email, so
// a sloppy sender still produces a usable lookup key.
func ParseAddress(header string) (email, name string) {
	addr, err := mail.ParseAddress(header)
	if err != nil {
		return strings.TrimSpace(header), ""
	}
	return addr.Address, addr.Name
}

// ExtractBody walks a message's MIME tree depth-first and returns the first
// text/plain and first text/html bodies found, decoded.
func ExtractBody(part *gmail.MessagePart) (plain, html string) {
	if part == nil {
		return "", ""
	}
	walkParts(part, &plain, &html)
	return plain, html
}

func walkParts(part *gmail.MessagePart, plain, html *string) {
	switch {
	case part.MimeType == "text/plain" && *plain == "":
		*plain = decodeBody(part)
	case part.MimeType == "text/html" && *html == "":
		*html = decodeBody(part)
	}
	for _, child := range part.Parts {
		if *plain != "" && *html != "" {
			return
		}
		walkParts(child, plain, html)
	}
}

// decodeBody decodes a part's base64url payload. Gmail emits padded and
// unpadded variants; both are accepted.
func decodeBody(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	if b, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(part.Body.Data); err == nil {
		return string(b)
	}
	return ""
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// wrapAPIError maps a 401 from the API onto ErrAuthExpired and passes
// everything else through.
func wrapAPIError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 401 {
		return fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	return err
}
