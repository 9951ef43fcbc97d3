package mailbox

import (
	"encoding/base64"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody_FlatPlain(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: b64url("hello there")},
	}
	plain, html := ExtractBody(part)
	if plain != "hello there" {
		t.Fatalf("plain = %q", plain)
	}
	if html != "" {
		t.Fatalf("html = %q, want empty", html)
	}
}

func TestExtractBody_MultipartAlternative(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("plain body")}},
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<p>html body</p>")}},
		},
	}
	plain, html := ExtractBody(part)
	if plain != "plain body" {
		t.Fatalf("plain = %q", plain)
	}
	if html != "<p>html body</p>" {
		t.Fatalf("html = %q", html)
	}
}

func TestExtractBody_NestedMixed(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("inner plain")}},
				},
			},
			{MimeType: "application/pdf", Body: &gmail.MessagePartBody{Data: b64url("binary")}},
		},
	}
	plain, html := ExtractBody(part)
	if plain != "inner plain" || html != "" {
		t.Fatalf("got (%q, %q)", plain, html)
	}
}

func TestExtractBody_FirstMatchWins(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("first")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("second")}},
		},
	}
	plain, _ := ExtractBody(part)
	if plain != "first" {
		t.Fatalf("plain = %q, want the first part", plain)
	}
}

func TestExtractBody_NoTextParts(t *testing.T) {
	part := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{MimeType: "image/png", Body: &gmail.MessagePartBody{Data: b64url("img")}},
		},
	}
	plain, html := ExtractBody(part)
	if plain != "" || html != "" {
		t.Fatalf("got (%q, %q), want empty", plain, html)
	}
}

func TestExtractBody_UnpaddedBase64(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded!"))
	part := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: raw},
	}
	plain, _ := ExtractBody(part)
	if plain != "unpadded!" {
		t.Fatalf("plain = %q", plain)
	}
}

func TestExtractBody_Nil(t *testing.T) {
	plain, html := ExtractBody(nil)
	if plain != "" || html != "" {
		t.Fatalf("nil part must yield empty bodies")
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		header    string
		wantEmail string
		wantName  string
	}{
		{`Ada Lovelace <ada@ae.test>`, "ada@ae.test", "Ada Lovelace"},
		{`<ada@ae.test>`, "ada@ae.test", ""},
		{`ada@ae.test`, "ada@ae.test", ""},
		{`"Lovelace, Ada" <ada@ae.test>`, "ada@ae.test", "Lovelace, Ada"},
		// Unparseable headers fall back to the raw value.
		{`not an address`, "not an address", ""},
	}
	for _, tc := range cases {
		email, name := ParseAddress(tc.header)
		if email != tc.wantEmail || name != tc.wantName {
			t.Fatalf("ParseAddress(%q) = (%q, %q), want (%q, %q)",
				tc.header, email, name, tc.wantEmail, tc.wantName)
		}
	}
}

func TestHasLabel(t *testing.T) {
	if !hasLabel([]string{"INBOX", "UNREAD"}, "INBOX") {
		t.Fatalf("INBOX not found")
	}
	if hasLabel([]string{"SENT"}, "INBOX") {
		t.Fatalf("false positive on SENT")
	}
	if hasLabel(nil, "INBOX") {
		t.Fatalf("false positive on nil labels")
	}
}
