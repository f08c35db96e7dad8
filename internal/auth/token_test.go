package auth

import (
	"strings"
	"testing"

	"github.com/quayside/quayside/internal/config"
)

func githubClientConfig() config.OAuthClient {
	return config.OAuthClient{ClientID: "gh-client", ClientSecret: "gh-secret"}
}

func emptyClientConfig() config.OAuthClient {
	return config.OAuthClient{}
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("test-secret", "usr-aaaa0001")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	userID, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if userID != "usr-aaaa0001" {
		t.Errorf("userID = %q, want usr-aaaa0001", userID)
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	if _, err := IssueToken("", "usr-aaaa0001"); err == nil {
		t.Error("IssueToken with empty secret succeeded, want error")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("right-secret", "usr-aaaa0001")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken("wrong-secret", token); err == nil {
		t.Error("ParseToken with wrong secret succeeded, want error")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseToken("secret", tok); err == nil {
			t.Errorf("ParseToken(%q) succeeded, want error", tok)
		}
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc123", "", "abc123"},
		{"bare header", "abc123", "", "abc123"},
		{"cookie fallback", "", "cookie-token", "cookie-token"},
		{"header wins", "Bearer from-header", "from-cookie", "from-header"},
		{"neither", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractToken(tt.header, tt.cookie); got != tt.want {
				t.Errorf("ExtractToken(%q, %q) = %q, want %q", tt.header, tt.cookie, got, tt.want)
			}
		})
	}
}

func TestProviderConfigured(t *testing.T) {
	p := NewGitHub(githubClientConfig(), "http://localhost:8080")
	if !p.Configured() {
		t.Error("provider with credentials reports unconfigured")
	}

	empty := NewGitHub(emptyClientConfig(), "http://localhost:8080")
	if empty.Configured() {
		t.Error("provider without credentials reports configured")
	}
}

func TestProviderAuthURL(t *testing.T) {
	p := NewGitHub(githubClientConfig(), "http://localhost:8080")
	url := p.AuthURL("state-xyz")
	if !strings.Contains(url, "state=state-xyz") {
		t.Errorf("AuthURL = %q, missing state parameter", url)
	}
	if !strings.Contains(url, "client_id=gh-client") {
		t.Errorf("AuthURL = %q, missing client id", url)
	}
}
