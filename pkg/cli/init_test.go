package cli

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/leelsey/recvd/pkg/config"
)

func TestValidatePortInput(t *testing.T) {
	t.Parallel()

	valid := []string{"1", "80", "7311", "65535"}
	for _, s := range valid {
		if err := validatePortInput(s); err != nil {
			t.Errorf("validatePortInput(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "0", "-1", "65536", "eighty", "80.5"}
	for _, s := range invalid {
		if err := validatePortInput(s); err == nil {
			t.Errorf("validatePortInput(%q) = nil, want error", s)
		}
	}
}

func TestGenerateYAMLWithComments(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultReceiverConfiguration()
	data, err := generateYAMLWithComments(cfg)
	if err != nil {
		t.Fatalf("generateYAMLWithComments() error = %v", err)
	}

	text := string(data)
	if !strings.HasPrefix(text, "# recvd.yaml") {
		t.Errorf("output missing header comment:\n%s", text)
	}
	if !strings.Contains(text, "recvd serve --config recvd.yaml") {
		t.Error("output missing serve hint")
	}
	if !strings.Contains(text, "http://localhost:80/logs") {
		t.Error("output missing view URL hint")
	}

	// The payload under the comments must round-trip as a valid config.
	var parsed config.ReceiverConfiguration
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generated YAML does not parse: %v", err)
	}
	if parsed.Port != config.DefaultPort {
		t.Errorf("parsed Port = %d, want %d", parsed.Port, config.DefaultPort)
	}
	if parsed.ViewPath != "/logs" {
		t.Errorf("parsed ViewPath = %q, want /logs", parsed.ViewPath)
	}
}
