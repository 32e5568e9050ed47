package main

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"genui-gateway/internal/adapter/auth"
	"genui-gateway/internal/infra/config"
)

func TestTokenCommand(t *testing.T) {
	store := auth.NewTokenStore(
		config.AuthConfig{TokenFile: filepath.Join(t.TempDir(), "auth.json")},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	token := "sk-ant-api03-" + strings.Repeat("k", 40)

	var out bytes.Buffer
	if err := tokenCommand(store, []string{"status"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No credential stored") {
		t.Errorf("status output = %q", out.String())
	}

	out.Reset()
	if err := tokenCommand(store, []string{"set", token, "work"}, &out); err != nil {
		t.Fatalf("set: %v", err)
	}
	if strings.Contains(out.String(), token) {
		t.Error("set output must not echo the full token")
	}
	if !store.IsAuthenticated() {
		t.Error("store should be authenticated after set")
	}

	out.Reset()
	if err := tokenCommand(store, []string{"status"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "api_key") {
		t.Errorf("status output = %q", out.String())
	}

	out.Reset()
	if err := tokenCommand(store, []string{"delete"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "deleted") {
		t.Errorf("delete output = %q", out.String())
	}
}

func TestTokenCommandErrors(t *testing.T) {
	store := auth.NewTokenStore(
		config.AuthConfig{TokenFile: filepath.Join(t.TempDir(), "auth.json")},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	tests := [][]string{
		nil,
		{"set"},
		{"set", "not-a-token"},
		{"rotate"},
	}
	for _, args := range tests {
		if err := tokenCommand(store, args, io.Discard); err == nil {
			t.Errorf("tokenCommand(%v) should fail", args)
		}
	}
}
