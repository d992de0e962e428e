// Package compose implements the response composer: turning a companion
// turn's text and images into one or more outbound Signal sends, with
// speech synthesis and image materialization (spec.md §4.5).
package compose

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/companion"
)

// Sender is the narrow transport surface the composer sends through.
type Sender interface {
	Send(ctx context.Context, recipient, message string, attachments []string) error
}

// Speaker synthesizes speech audio to a file.
type Speaker interface {
	Synthesize(ctx context.Context, text, voice, outputPath string) error
}

// ImageFetcher resolves a generated image's URL from its id when the
// stream event carried no url.
type ImageFetcher interface {
	FetchImageByID(ctx context.Context, id string) (string, error)
}

// Composer sends a companion turn's text and images to a Signal recipient.
type Composer struct {
	sender   Sender
	speaker  Speaker
	images   ImageFetcher
	tempDir  string
	imageGap time.Duration
	log      zerolog.Logger
}

// New creates a Composer. tempDir holds transient audio/image files; it is
// created if missing.
func New(sender Sender, speaker Speaker, images ImageFetcher, tempDir string, log zerolog.Logger) *Composer {
	return &Composer{
		sender:   sender,
		speaker:  speaker,
		images:   images,
		tempDir:  tempDir,
		imageGap: time.Second,
		log:      log,
	}
}

// Send composes and delivers one turn: text+audio first, then each image
// as a separate message, preserving LLM order (spec.md §4.5).
func (c *Composer) Send(ctx context.Context, recipient, text, companionName, voiceID string, images []companion.Image) error {
	return c.send(ctx, recipient, text, companionName, voiceID, images, true)
}

// SendText is Send with speech synthesis skipped, used by scheduled jobs
// whose original sent include_audio=false (system alerts, automation
// completion notices — scheduler.py send_message_to_owner).
func (c *Composer) SendText(ctx context.Context, recipient, text, companionName string, images []companion.Image) error {
	return c.send(ctx, recipient, text, companionName, "", images, false)
}

func (c *Composer) send(ctx context.Context, recipient, text, companionName, voiceID string, images []companion.Image, synthesize bool) error {
	if err := os.MkdirAll(c.tempDir, 0o755); err != nil {
		return fmt.Errorf("compose: tempdir: %w", err)
	}

	var tempFiles []string
	defer func() {
		for _, f := range tempFiles {
			os.Remove(f)
		}
	}()

	var audioPath string
	if synthesize {
		audioPath = c.synthesizeSpeech(ctx, text, voiceID)
		if audioPath != "" {
			tempFiles = append(tempFiles, audioPath)
		}
	}

	clean := StripThinking(text)
	formatted := FormatAttributed(companionName, clean)

	var audioAttachments []string
	if audioPath != "" {
		audioAttachments = []string{audioPath}
	}
	if err := c.sender.Send(ctx, recipient, formatted, audioAttachments); err != nil {
		return fmt.Errorf("compose: send text: %w", err)
	}

	for i, img := range images {
		path, err := c.materializeImage(ctx, img, i)
		if err != nil {
			c.log.Warn().Err(err).Int("index", i).Msg("compose: skipping image, could not materialize")
			continue
		}
		tempFiles = append(tempFiles, path)

		time.Sleep(c.imageGap)
		if err := c.sender.Send(ctx, recipient, "", []string{path}); err != nil {
			c.log.Warn().Err(err).Int("index", i).Msg("compose: failed to send image")
		}
	}
	return nil
}

func (c *Composer) synthesizeSpeech(ctx context.Context, text, voiceID string) string {
	spoken := SpeechVariant(text)
	if spoken == "" {
		return ""
	}
	path := filepath.Join(c.tempDir, "response_"+xid.New().String()+".wav")
	if err := c.speaker.Synthesize(ctx, spoken, voiceID, path); err != nil {
		c.log.Warn().Err(err).Msg("compose: tts synthesis failed")
		return ""
	}
	return path
}

// materializeImage decodes a data: URI in place, or fetches the image by
// id when the url is absent (spec.md §4.5 step 4).
func (c *Composer) materializeImage(ctx context.Context, img companion.Image, index int) (string, error) {
	url := img.URL
	if url == "" && img.ID != "" {
		fetched, err := c.images.FetchImageByID(ctx, img.ID)
		if err != nil {
			return "", err
		}
		url = fetched
	}
	if !strings.HasPrefix(url, "data:image") {
		return "", fmt.Errorf("compose: image %d: unexpected url format", index)
	}

	_, b64 := splitDataURI(url)
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("compose: image %d: decode: %w", index, err)
	}

	path := filepath.Join(c.tempDir, fmt.Sprintf("image_%s_%d.png", xid.New().String(), index))
	if err := os.WriteFile(path, decoded, 0o644); err != nil {
		return "", fmt.Errorf("compose: image %d: write: %w", index, err)
	}
	return path, nil
}

func splitDataURI(uri string) (meta, data string) {
	idx := strings.Index(uri, ",")
	if idx == -1 {
		return uri, ""
	}
	return uri[:idx], uri[idx+1:]
}
