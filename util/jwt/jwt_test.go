package jwt

import "testing"

func TestIssueParseRoundTrip(t *testing.T) {
	tok, err := Issue("secret", 42, "admin", 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseAuth("Bearer "+tok, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub, _ := claims["sub"].(float64); int64(sub) != 42 {
		t.Fatalf("sub: got %v, want 42", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "admin" {
		t.Fatalf("role: got %v, want admin", claims["role"])
	}
}

func TestParseAuth_BareTokenAccepted(t *testing.T) {
	tok, err := Issue("secret", 7, "user", 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseAuth(tok, "secret"); err != nil {
		t.Fatalf("bare token rejected: %v", err)
	}
}

func TestParseAuth_Rejections(t *testing.T) {
	tok, err := Issue("secret", 7, "user", 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := ParseAuth("", "secret"); err == nil {
		t.Fatal("empty header accepted")
	}
	if _, err := ParseAuth("Bearer ", "secret"); err == nil {
		t.Fatal("empty token accepted")
	}
	if _, err := ParseAuth("Bearer "+tok, "other"); err == nil {
		t.Fatal("wrong secret accepted")
	}

	expired, err := Issue("secret", 7, "user", -1)
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := ParseAuth("Bearer "+expired, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}
