// Package tts synthesizes speech audio for the response composer, using
// an OpenAI-compatible /audio/speech endpoint (the companion service's own
// HTTP API is the sole LLM entry point; this hits a dedicated TTS/STT
// provider instead, per SPEC_FULL.md §6).
package tts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultVoice = "sophie"

// Synthesizer generates WAV speech audio via an OpenAI-compatible API.
type Synthesizer struct {
	client openai.Client
	model  string
}

// New creates a Synthesizer authenticated against baseURL with apiKey.
func New(apiKey, baseURL, model string) *Synthesizer {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = "tts-1"
	}
	return &Synthesizer{client: openai.NewClient(opts...), model: model}
}

// Synthesize renders text with voice (falling back to DefaultVoice when
// empty) and writes WAV audio to outputPath.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	if voice == "" {
		voice = DefaultVoice
	}
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return fmt.Errorf("tts: synthesize: %w", err)
	}
	defer resp.Body.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("tts: create output: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("tts: write output: %w", err)
	}
	return nil
}

// Transcriber turns a voice-note's audio bytes into text via an
// OpenAI-compatible /audio/transcriptions endpoint.
type Transcriber struct {
	client openai.Client
	model  string
}

const DefaultTranscriptionModel = "whisper-1"

// NewTranscriber creates a Transcriber authenticated against baseURL with
// apiKey, sharing the same client construction as New.
func NewTranscriber(apiKey, baseURL, model string) *Transcriber {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultTranscriptionModel
	}
	return &Transcriber{client: openai.NewClient(opts...), model: model}
}

// Transcribe reads the voice-note at path and returns its spoken text.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("tts: transcribe: open: %w", err)
	}
	defer f.Close()

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  f,
	})
	if err != nil {
		return "", fmt.Errorf("tts: transcribe: %w", err)
	}
	return resp.Text, nil
}
