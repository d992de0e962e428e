// Package bridge is the process orchestrator: it owns the single-instance
// lock, drives the intake loop, and wires the envelope parser, intent
// resolver, command interpreter, companion client, and response composer
// into one pipeline (spec.md §4.9).
package bridge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/commands"
	"github.com/rotoslider/choom-bridge/internal/companion"
	"github.com/rotoslider/choom-bridge/internal/compose"
	"github.com/rotoslider/choom-bridge/internal/envelope"
	"github.com/rotoslider/choom-bridge/internal/intent"
	"github.com/rotoslider/choom-bridge/internal/rpcclient"
)

// Transcriber turns a voice-note's audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Options configures a Bridge's fixed identity and collaborators.
type Options struct {
	OwnerID        string // Signal identifier (e.g. phone number/UUID) the bridge accepts messages from
	AttachmentsDir string // signal-cli's attachment store, keyed by attachment id
	PollInterval   time.Duration
	ConnectTimeout time.Duration
}

// Bridge owns the intake loop and its collaborators.
type Bridge struct {
	transport   *rpcclient.Transport
	companion   *companion.Client
	composer    *compose.Composer
	commands    *commands.Interpreter
	sticky      *intent.Sticky
	transcriber Transcriber
	log         zerolog.Logger

	ownerID        string
	attachmentsDir string
	pollInterval   time.Duration
	connectTimeout time.Duration

	stop chan struct{}
}

// New wires a Bridge.
func New(
	transport *rpcclient.Transport,
	companionClient *companion.Client,
	composer *compose.Composer,
	interpreter *commands.Interpreter,
	sticky *intent.Sticky,
	transcriber Transcriber,
	log zerolog.Logger,
	opts Options,
) *Bridge {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	return &Bridge{
		transport:      transport,
		companion:      companionClient,
		composer:       composer,
		commands:       interpreter,
		sticky:         sticky,
		transcriber:    transcriber,
		log:            log,
		ownerID:        opts.OwnerID,
		attachmentsDir: opts.AttachmentsDir,
		pollInterval:   poll,
		connectTimeout: connectTimeout,
		stop:           make(chan struct{}),
	}
}

// Run drives the intake loop until ctx is canceled or Stop is called.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.transport.Connected() {
		if err := b.transport.Connect(ctx, b.connectTimeout); err != nil {
			return fmt.Errorf("bridge: initial connect: %w", err)
		}
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.stop:
			return nil
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

// Stop signals Run to return after its current tick.
func (b *Bridge) Stop() {
	close(b.stop)
}

func (b *Bridge) tick(ctx context.Context) {
	if !b.transport.Connected() {
		if err := b.transport.Reconnect(ctx, b.connectTimeout); err != nil {
			b.log.Warn().Err(err).Msg("bridge: reconnect failed")
			return
		}
		b.log.Info().Msg("bridge: transport reconnected")
	}

	for _, raw := range b.transport.DrainNotifications() {
		intake, ok := envelope.Parse(raw)
		if !ok {
			continue
		}
		if intake.Sender != b.ownerID {
			continue
		}
		b.process(ctx, intake)
	}
}

func (b *Bridge) process(ctx context.Context, intake *envelope.Intake) {
	if err := b.transport.SendTyping(ctx, intake.Sender, false); err != nil {
		b.log.Debug().Err(err).Msg("bridge: send typing failed")
	}

	text := intake.Text
	if voice, ok := firstVoiceNote(intake.Attachments); ok {
		transcribed, err := b.transcriber.Transcribe(ctx, b.attachmentPath(voice.ID))
		if err != nil {
			b.log.Warn().Err(err).Msg("bridge: transcription failed, falling back to caption text")
		} else {
			text = transcribed
		}
	}

	if imageLines := b.describeImageAttachments(intake.Attachments); imageLines != "" {
		text = imageLines + "\n\n" + text
	}

	active, cleaned := b.sticky.Resolve(text)

	if reply, ok := b.commands.Interpret(ctx, cleaned); ok {
		b.deliver(ctx, intake.Sender, reply, active)
		return
	}
	if reply, ok := b.commands.Interpret(ctx, text); ok {
		b.deliver(ctx, intake.Sender, reply, active)
		return
	}
	if _, mutated := b.commands.InlineListMutation(ctx, text); mutated {
		b.log.Debug().Msg("bridge: inline list mutation applied alongside LLM reply")
	}

	b.companion.RecordUserActivity(active)
	resp, err := b.companion.SendMessage(ctx, active, cleaned, companion.SendOptions{})
	if err != nil {
		b.log.Error().Err(err).Str("companion", active).Msg("bridge: companion turn failed")
		b.deliver(ctx, intake.Sender, "Sorry, I'm having trouble reaching "+active+" right now.", active)
		return
	}
	voice := ""
	if comp, ok := b.companion.GetByName(ctx, active); ok {
		voice = comp.VoiceID
	}
	if err := b.composer.Send(ctx, intake.Sender, resp.Text, active, voice, resp.Images); err != nil {
		b.log.Error().Err(err).Msg("bridge: failed to deliver companion response")
	}
}

func (b *Bridge) deliver(ctx context.Context, recipient, text, companionName string) {
	voice := ""
	if comp, ok := b.companion.GetByName(ctx, companionName); ok {
		voice = comp.VoiceID
	}
	if err := b.composer.Send(ctx, recipient, text, companionName, voice, nil); err != nil {
		b.log.Error().Err(err).Msg("bridge: failed to deliver command reply")
	}
}

func firstVoiceNote(attachments []envelope.Attachment) (envelope.Attachment, bool) {
	for _, a := range attachments {
		if a.VoiceNote {
			return a, true
		}
	}
	return envelope.Attachment{}, false
}

// describeImageAttachments materializes image-attachment paths and
// formats the structured prefix the companion LLM expects for vision
// input (spec.md §4.9 "prepend structured 'please analyze this image'
// lines").
func (b *Bridge) describeImageAttachments(attachments []envelope.Attachment) string {
	var lines []string
	for _, a := range attachments {
		if !a.IsImage() {
			continue
		}
		path := b.attachmentPath(a.ID)
		if w, h := analyzeImage(path); w > 0 && h > 0 {
			lines = append(lines, fmt.Sprintf("[Please analyze this image (%dx%d): %s]", w, h, path))
		} else {
			lines = append(lines, fmt.Sprintf("[Please analyze this image: %s]", path))
		}
	}
	return strings.Join(lines, "\n")
}

func (b *Bridge) attachmentPath(id string) string {
	return filepath.Join(b.attachmentsDir, id)
}
