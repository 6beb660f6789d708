package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ElevenLabsTTS synthesizes speech through the ElevenLabs HTTP API and
// writes the result to disk. Playback is up to the caller.
type ElevenLabsTTS struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

func NewElevenLabsTTS(apiKey, voiceID string) *ElevenLabsTTS {
	return &ElevenLabsTTS{
		apiKey:     apiKey,
		voiceID:    voiceID,
		baseURL:    "https://api.elevenlabs.io",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SynthesizeToMP3 renders text to a uniquely named mp3 file under outDir
// and returns the file path.
func (t *ElevenLabsTTS) SynthesizeToMP3(ctx context.Context, text, outDir string) (string, error) {
	if t.apiKey == "" || t.voiceID == "" {
		return "", fmt.Errorf("tts: api key and voice id are required")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("tts: create output dir: %w", err)
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("tts: marshal request: %w", err)
	}

	endpoint := t.baseURL + "/v1/text-to-speech/" + url.PathEscape(t.voiceID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("tts: create request: %w", err)
	}
	req.Header.Set("xi-api-key", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tts: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("tts: status %d: %s", resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tts: read audio: %w", err)
	}

	path := filepath.Join(outDir, fmt.Sprintf("tts_%s.mp3", uuid.New().String()))
	if err := os.WriteFile(path, audio, 0644); err != nil {
		return "", fmt.Errorf("tts: write audio file: %w", err)
	}
	return path, nil
}
