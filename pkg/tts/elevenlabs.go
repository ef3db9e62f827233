package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech REST API.
type ElevenLabsSynthesizer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewElevenLabsSynthesizer builds a Synthesizer against the given endpoint.
func NewElevenLabsSynthesizer(baseURL, apiKey string, timeout time.Duration) *ElevenLabsSynthesizer {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ElevenLabsSynthesizer{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// Synthesize implements Synthesizer. It returns the raw audio bytes (mp3).
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("voice id required")
	}
	body, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, err
	}
	url := s.baseURL + "/v1/text-to-speech/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("speech synthesis api error: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio from speech synthesis api")
	}
	return audio, nil
}
