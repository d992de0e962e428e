package compose

import (
	"context"
	"encoding/base64"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/companion"
)

func TestStripThinking(t *testing.T) {
	got := StripThinking("before <think>internal reasoning\nmore</think> after")
	if got != "before  after" && got != "before after" {
		t.Fatalf("got %q", got)
	}
}

func TestSpeechVariantDropsWorkingNarration(t *testing.T) {
	text := "Now let me check the weather for you.\n\nIt's sunny and 72 degrees."
	got := SpeechVariant(text)
	if got != "It's sunny and 72 degrees." {
		t.Fatalf("got %q", got)
	}
}

func TestSpeechVariantFallsBackToLastParagraphWhenAllFiltered(t *testing.T) {
	text := "Now let me check that.\n\nI've created the file for you."
	got := SpeechVariant(text)
	if got != "I've created the file for you." {
		t.Fatalf("got %q", got)
	}
}

func TestSpeechVariantStripsMarkdownAndURLs(t *testing.T) {
	text := "Check out [this link](https://example.com) at https://example.com/page **now**"
	got := SpeechVariant(text)
	if got != "Check out this link at now" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatAttributed(t *testing.T) {
	if got := FormatAttributed("Genesis", "hello"); got != "[Genesis]\n\nhello" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAttributed("", "hello"); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

type fakeSender struct {
	mu    sync.Mutex
	sends []sendCall
}

type sendCall struct {
	recipient   string
	message     string
	attachments []string
}

func (f *fakeSender) Send(ctx context.Context, recipient, message string, attachments []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendCall{recipient, message, attachments})
	return nil
}

type fakeSpeaker struct{ calls int }

func (f *fakeSpeaker) Synthesize(ctx context.Context, text, voice, outputPath string) error {
	f.calls++
	return os.WriteFile(outputPath, []byte("fake-wav"), 0o644)
}

type fakeImages struct{}

func (fakeImages) FetchImageByID(ctx context.Context, id string) (string, error) {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")), nil
}

func TestComposerSendsTextAudioThenImagesInOrder(t *testing.T) {
	sender := &fakeSender{}
	speaker := &fakeSpeaker{}
	composer := New(sender, speaker, fakeImages{}, t.TempDir(), zerolog.Nop())
	composer.imageGap = 0

	img1 := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("first"))
	img2 := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("second"))
	images := []companion.Image{{URL: img1}, {URL: img2}}

	err := composer.Send(context.Background(), "+15551234567", "Here's your answer.", "Genesis", "", images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sends) != 3 {
		t.Fatalf("expected 3 sends (text+audio, image1, image2), got %d", len(sender.sends))
	}
	if sender.sends[0].message != "[Genesis]\n\nHere's your answer." {
		t.Fatalf("unexpected first send message: %q", sender.sends[0].message)
	}
	if len(sender.sends[0].attachments) != 1 {
		t.Fatalf("expected audio attachment on first send, got %+v", sender.sends[0].attachments)
	}
	if sender.sends[1].message != "" || len(sender.sends[1].attachments) != 1 {
		t.Fatalf("expected image-only second send, got %+v", sender.sends[1])
	}
	if sender.sends[2].message != "" || len(sender.sends[2].attachments) != 1 {
		t.Fatalf("expected image-only third send, got %+v", sender.sends[2])
	}

	// Temp files should be cleaned up after Send returns.
	entries, _ := os.ReadDir(composer.tempDir)
	if len(entries) != 0 {
		t.Fatalf("expected temp files cleaned up, found %v", entries)
	}
}

func TestComposerFetchesImageByIDWhenURLAbsent(t *testing.T) {
	sender := &fakeSender{}
	speaker := &fakeSpeaker{}
	composer := New(sender, speaker, fakeImages{}, t.TempDir(), zerolog.Nop())
	composer.imageGap = 0

	images := []companion.Image{{ID: "img-123"}}
	err := composer.Send(context.Background(), "+15551234567", "", "", "", images)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sends) != 2 {
		t.Fatalf("expected text send plus one image send, got %d", len(sender.sends))
	}
}

func TestSplitDataURI(t *testing.T) {
	meta, data := splitDataURI("data:image/png;base64,abc123")
	if meta != "data:image/png;base64" || data != "abc123" {
		t.Fatalf("got (%q, %q)", meta, data)
	}
}
