package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewManager("test-secret", 0)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := m.GenerateUserToken("user-123", "user@example.com")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("Expected UserID 'user-123', got '%s'", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Expected Email 'user@example.com', got '%s'", claims.Email)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m1, _ := NewManager("secret-one", 0)
	m2, _ := NewManager("secret-two", 0)

	token, err := m1.GenerateUserToken("user-123", "")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("Expected error validating token with wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	m, _ := NewManager("test-secret", time.Nanosecond)

	token, err := m.GenerateUserToken("user-123", "")
	if err != nil {
		t.Fatalf("GenerateUserToken failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("Expected error validating expired token")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	m, _ := NewManager("test-secret", 0)
	if _, err := m.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected error validating garbage token")
	}
}

func TestNewManager_EmptySecret(t *testing.T) {
	if _, err := NewManager("", 0); err == nil {
		t.Error("Expected error for empty secret")
	}
}
