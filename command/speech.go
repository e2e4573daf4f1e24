package command

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/kroma-labs/readerbridge/fetch"
)

const (
	// SpeakElevenLabs is the name of the speech synthesis command.
	SpeakElevenLabs = "tts_speak_elevenlabs"

	// DefaultSpeechBaseURL is the ElevenLabs API root.
	DefaultSpeechBaseURL = "https://api.elevenlabs.io"

	// DefaultSpeechModel is used when no model is given.
	DefaultSpeechModel = "eleven_multilingual_v2"

	speechOutputFormat = "mp3_44100_128"
)

// SpeakArgs are the arguments of tts_speak_elevenlabs.
type SpeakArgs struct {
	Text    string `json:"text"`
	APIKey  string `json:"apiKey"`
	VoiceID string `json:"voiceId"`
	ModelID string `json:"modelId,omitempty"`
}

type speechPayload struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Speech synthesizes article text through ElevenLabs using the shared client.
type Speech struct {
	clients fetch.ClientSource
	baseURL string
	logger  zerolog.Logger
}

// NewSpeech creates a Speech. An empty baseURL means DefaultSpeechBaseURL.
func NewSpeech(clients fetch.ClientSource, baseURL string, logger zerolog.Logger) *Speech {
	if baseURL == "" {
		baseURL = DefaultSpeechBaseURL
	}
	return &Speech{
		clients: clients,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Speak returns the synthesized MP3 audio, base64 encoded.
func (s *Speech) Speak(ctx context.Context, args SpeakArgs) (string, error) {
	switch {
	case strings.TrimSpace(args.Text) == "":
		return "", failf(nil, "Text is empty")
	case args.APIKey == "":
		return "", failf(nil, "ElevenLabs API key is missing")
	case args.VoiceID == "":
		return "", failf(nil, "ElevenLabs voice ID is missing")
	}

	model := args.ModelID
	if model == "" {
		model = DefaultSpeechModel
	}

	payload, err := json.Marshal(speechPayload{Text: args.Text, ModelID: model})
	if err != nil {
		return "", failf(err, "ElevenLabs request failed: %v", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		s.baseURL, url.PathEscape(args.VoiceID), speechOutputFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", failf(err, "ElevenLabs request failed: %v", err)
	}
	req.Header.Set("xi-api-key", args.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	client, err := s.clients.Client()
	if err != nil {
		return "", failf(err, "ElevenLabs request failed: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("voice_id", args.VoiceID).Msg("speech request failed")
		return "", failf(err, "ElevenLabs request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", failf(err, "Failed to read ElevenLabs response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn().Int("status", resp.StatusCode).Str("voice_id", args.VoiceID).Msg("speech request rejected")
		return "", failf(nil, "ElevenLabs HTTP %s: %s", resp.Status, speechErrorDetail(body))
	}

	s.logger.Debug().Int("bytes", len(body)).Str("model", model).Msg("speech synthesized")
	return base64.StdEncoding.EncodeToString(body), nil
}

// speechErrorDetail extracts detail.message (or a plain string detail) from
// an ElevenLabs error body, falling back to the raw body.
func speechErrorDetail(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "detail.message"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
		if detail := gjson.GetBytes(body, "detail"); detail.Type == gjson.String && detail.Str != "" {
			return detail.Str
		}
	}
	return strings.TrimSpace(string(body))
}

// RegisterSpeech registers tts_speak_elevenlabs.
func RegisterSpeech(r *Registry, s *Speech) error {
	return r.Register(SpeakElevenLabs, Typed(s.Speak))
}
