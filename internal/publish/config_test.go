package publish_test

import (
	"testing"

	"loadgate/internal/config"
	"loadgate/internal/publish"
)

func TestRequestFromConfigResolvesCredentials(t *testing.T) {
	t.Setenv("REGISTRY_PASSWORD", "from-env")

	cfg := config.Default().Publish
	cfg.Prefix = "pr-7-"
	cfg.Credentials = []config.Credential{
		{Env: "REGISTRY_USERNAME", Value: "inline-user"},
		{Env: "REGISTRY_PASSWORD"},
	}

	req := publish.RequestFromConfig(cfg)
	if req.Prefix != "pr-7-" {
		t.Fatalf("unexpected prefix %q", req.Prefix)
	}
	want := []publish.Credential{
		{Env: "REGISTRY_USERNAME", Value: "inline-user"},
		{Env: "REGISTRY_PASSWORD", Value: "from-env"},
	}
	if len(req.Credentials) != len(want) {
		t.Fatalf("expected %d credentials, got %d", len(want), len(req.Credentials))
	}
	for i := range want {
		if req.Credentials[i] != want[i] {
			t.Fatalf("credential %d = %+v, want %+v", i, req.Credentials[i], want[i])
		}
	}
}

func TestNewFromConfigRequiresCommand(t *testing.T) {
	cfg := config.Default().Publish
	cfg.Command = nil
	if _, err := publish.NewFromConfig(cfg, nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
