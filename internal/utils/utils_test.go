package utils

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", "ana@corp.com", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserName != "ana@corp.com" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := ParseAccessToken("other", tok.Token); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", "ana", RoleUser, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken("secret", tok.Token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyAccessCode(t *testing.T) {
	hash, err := HashAccessCode("mesa-2026", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyAccessCode(hash, "mesa-2026") {
		t.Fatal("correct code rejected")
	}
	if VerifyAccessCode(hash, "wrong") || VerifyAccessCode("", "mesa-2026") || VerifyAccessCode(hash, "") {
		t.Fatal("wrong code accepted")
	}
}
