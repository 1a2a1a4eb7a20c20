package session

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, exp, err := m.Issue(7, 2, "v1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v should be in the future", exp)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.TenantID != 2 || claims.TokenVersion != "v1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _, _ := m.Issue(7, 0, "v1")

	other := NewManager("other-secret", time.Hour)
	if _, err := other.Parse(token); err == nil {
		t.Error("token signed with another secret accepted")
	}

	expired := NewManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue(7, 0, "v1")
	if _, err := m.Parse(old); err == nil {
		t.Error("expired token accepted")
	}

	if _, err := m.Parse("garbage"); err == nil {
		t.Error("garbage accepted")
	}
}
