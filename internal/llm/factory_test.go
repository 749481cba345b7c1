package llm

import (
	"errors"
	"testing"

	"github.com/ppiankov/ticketdebate/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false},
		{"ollama", Config{Provider: "ollama", Model: "llava"}, "ollama", false},
		{"unknown", Config{Provider: "gemini"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if !errors.Is(err, model.ErrConfiguration) {
					t.Fatalf("Expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider failed: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:    "anthropic",
		Model:       "claude-3-5-sonnet-20241022",
		APIKey:      "secret",
		Timeout:     12,
		MaxTokens:   500,
		Temperature: 0.5,
	})

	if cfg.Provider != "anthropic" || cfg.APIKey != "secret" || cfg.Timeout != 12 {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.MaxTokens != 500 || cfg.Temperature != 0.5 {
		t.Errorf("Unexpected generation settings: %+v", cfg)
	}
}
