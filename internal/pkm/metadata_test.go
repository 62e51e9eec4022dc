package pkm

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com", "https://example.com"},
		{"  https://example.com/  ", "https://example.com"},
		{"HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:443", "https://example.com"},
		{"https://example.com:8443/a", "https://example.com:8443/a"},
		{"https://example.com/?q=1", "https://example.com/?q=1"},
		{"not a url", "not a url"},
		{"http://[::1]:8080/x", "http://[::1]:8080/x"},
		{"http://[::1]:80/x", "http://[::1]/x"},
		{"https://[2001:DB8::1]/", "https://[2001:db8::1]"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.example.com/a", "example.com"},
		{"http://sub.example.com", "sub.example.com"},
		{"https://EXAMPLE.com:8080", "example.com"},
		{"ftp://example.com", ""},
		{"example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DomainOf(tt.in); got != tt.want {
			t.Errorf("DomainOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.youtube.com/watch?v=x", ContentVideo},
		{"https://m.youtube.com/watch?v=x", ContentVideo},
		{"https://github.com/golang/go", ContentRepository},
		{"https://arxiv.org/abs/1234", ContentPaper},
		{"https://example.com/report.PDF", ContentPDF},
		{"https://example.com/post", ContentArticle},
		{"mailto:someone@example.com", ""},
	}
	for _, tt := range tests {
		if got := GuessContentType(tt.in); got != tt.want {
			t.Errorf("GuessContentType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeriveMetadata_KeepsCallerValues(t *testing.T) {
	m := deriveMetadata("https://github.com/x/y", Metadata{ContentType: "tutorial", Domain: "stale.example"})
	if m.ContentType != "tutorial" {
		t.Errorf("ContentType = %q, want caller value kept", m.ContentType)
	}
	if m.Domain != "github.com" {
		t.Errorf("Domain = %q, want github.com", m.Domain)
	}
}
