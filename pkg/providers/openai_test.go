package providers

import (
	"testing"
	"time"
)

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewOpenAIClient_DefaultModel(t *testing.T) {
	c, err := NewOpenAIClient("sk-test", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != defaultModel {
		t.Errorf("model: got %q, want %q", c.Model(), defaultModel)
	}

	c, err = NewOpenAIClient("sk-test", "https://example.com/v1/", "glm-4.7")
	if err != nil {
		t.Fatal(err)
	}
	if c.Model() != "glm-4.7" {
		t.Errorf("model: got %q, want glm-4.7", c.Model())
	}
}

func TestBackoff(t *testing.T) {
	if d := backoff(time.Second, 0); d != 0 {
		t.Errorf("attempt 0: got %v, want 0", d)
	}

	// Exponential growth with jitter stays within +/-25% of 2^n * base.
	for attempt := 1; attempt <= 3; attempt++ {
		want := time.Second * time.Duration(1<<uint(attempt))
		d := backoff(time.Second, attempt)
		if d < want*3/4 || d > want*5/4 {
			t.Errorf("attempt %d: got %v, want within 25%% of %v", attempt, d, want)
		}
	}

	// Large attempts are capped near 30s.
	if d := backoff(time.Second, 40); d > 38*time.Second {
		t.Errorf("capped backoff too large: %v", d)
	}
}
