package security

import (
	"testing"

	"github.com/pkg/errors"
)

func TestValidateOutboundURLRejectsZonedIPv6ByDefault(t *testing.T) {
	err := ValidateOutboundURL("https://[fe80::1%25eth0]/", OutboundURLOptions{})
	if err == nil {
		t.Fatal("expected zone-literal IPv6 host to be rejected")
	}
	if !errors.Is(err, ErrUnsafeURL) {
		t.Fatalf("expected ErrUnsafeURL, got %v", err)
	}
}

func TestValidateOutboundURLAllowsZonedIPv6WhenLocalNetworksAllowed(t *testing.T) {
	err := ValidateOutboundURL("https://[fe80::1%25eth0]/", OutboundURLOptions{
		AllowLocalNetworks: true,
	})
	if err != nil {
		t.Fatalf("expected zone-literal IPv6 host to be allowed when local networks are enabled: %v", err)
	}
}

func TestValidateOutboundURLLocalBackend(t *testing.T) {
	if err := ValidateOutboundURL("http://localhost:5001", OutboundURLOptions{}); err == nil {
		t.Fatal("expected local http backend to be rejected by default")
	}
	if err := ValidateOutboundURL("http://localhost:5001", LocalBackend); err != nil {
		t.Fatalf("expected local backend to be allowed: %v", err)
	}
	if err := ValidateOutboundURL("ftp://example.com", LocalBackend); err == nil {
		t.Fatal("expected ftp scheme to be rejected")
	}
	if err := ValidateOutboundURL("https://0.0.0.0", LocalBackend); err == nil {
		t.Fatal("expected unspecified address to be rejected")
	}
}

func TestValidateMediaURL(t *testing.T) {
	ok := []string{
		"https://cdn.example.com/a.png",
		"http://localhost:5001/media/v.mp4",
		"blob:solomon/1234",
	}
	for _, u := range ok {
		if err := ValidateMediaURL(u); err != nil {
			t.Fatalf("expected %q to be accepted: %v", u, err)
		}
	}
	bad := []string{
		"javascript:alert(1)",
		"data:image/png;base64,AAAA",
		"blob:",
		"https://",
		"file:///etc/passwd",
	}
	for _, u := range bad {
		if err := ValidateMediaURL(u); err == nil {
			t.Fatalf("expected %q to be rejected", u)
		}
	}
}
