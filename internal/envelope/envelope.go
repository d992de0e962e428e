// Package envelope normalizes a raw signal-cli JSON-RPC "receive"
// notification into an intake record (spec.md §3, §4.2).
package envelope

import (
	"encoding/json"
	"strings"
)

// Attachment is one inbound file reference. Its raw bytes live under
// <transport-config>/attachments/<ID>; the envelope only carries the
// opaque reference.
type Attachment struct {
	ID        string
	MIMEType  string
	Filename  string
	Size      int64
	VoiceNote bool
}

// Quote is a reference to a quoted (replied-to) message.
type Quote struct {
	ID     int64
	Author string
	Text   string
}

// Intake is the normalized inbound message record.
type Intake struct {
	Sender      string
	TimestampMs int64
	Text        string
	Quote       *Quote
	Attachments []Attachment
	IsSync      bool // delivered via syncMessage.sentMessage (the owner's own client)
}

// HasContent reports whether there is text or at least one attachment.
// An intake failing this is dropped per spec.md §3's envelope invariant.
func (i *Intake) HasContent() bool {
	return strings.TrimSpace(i.Text) != "" || len(i.Attachments) > 0
}

type rawEnvelope struct {
	Source      string          `json:"source"`
	SourceName  string          `json:"sourceName"`
	Timestamp   int64           `json:"timestamp"`
	DataMessage *rawDataMessage `json:"dataMessage"`
	SyncMessage *rawSyncMessage `json:"syncMessage"`
}

type rawSyncMessage struct {
	SentMessage *rawSentMessage `json:"sentMessage"`
}

type rawSentMessage struct {
	Destination string          `json:"destination"`
	Timestamp   int64           `json:"timestamp"`
	Message     string          `json:"message"`
	Attachments []rawAttachment `json:"attachments"`
	Quote       *rawQuote       `json:"quote"`
}

type rawDataMessage struct {
	Message     string          `json:"message"`
	Attachments []rawAttachment `json:"attachments"`
	Quote       *rawQuote       `json:"quote"`
}

type rawAttachment struct {
	ID              string `json:"id"`
	ContentType     string `json:"contentType"`
	Filename        string `json:"filename"`
	Size            int64  `json:"size"`
	VoiceNote       bool   `json:"voiceNote"`
}

type rawQuote struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Parse normalizes a raw "receive" notification payload. The second
// return value is false when the envelope carries neither a data message
// nor a sync-sent message, or when the message it carries has no text and
// no attachments (spec.md §8 invariant 4) — the caller should drop it
// silently.
func Parse(raw json.RawMessage) (*Intake, bool) {
	var params struct {
		Envelope rawEnvelope `json:"envelope"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, false
	}
	env := params.Envelope

	if env.DataMessage != nil {
		intake := &Intake{
			Sender:      env.Source,
			TimestampMs: env.Timestamp,
			Text:        env.DataMessage.Message,
			Attachments: classifyAttachments(env.DataMessage.Attachments),
			Quote:       classifyQuote(env.DataMessage.Quote),
		}
		if !intake.HasContent() {
			return nil, false
		}
		return intake, true
	}

	if env.SyncMessage != nil && env.SyncMessage.SentMessage != nil {
		sent := env.SyncMessage.SentMessage
		intake := &Intake{
			Sender:      env.Source,
			TimestampMs: sent.Timestamp,
			Text:        sent.Message,
			Attachments: classifyAttachments(sent.Attachments),
			Quote:       classifyQuote(sent.Quote),
			IsSync:      true,
		}
		if !intake.HasContent() {
			return nil, false
		}
		return intake, true
	}

	return nil, false
}

func classifyQuote(q *rawQuote) *Quote {
	if q == nil {
		return nil
	}
	return &Quote{ID: q.ID, Author: q.Author, Text: q.Text}
}

func classifyAttachments(raw []rawAttachment) []Attachment {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Attachment, 0, len(raw))
	for _, a := range raw {
		out = append(out, Attachment{
			ID:        a.ID,
			MIMEType:  a.ContentType,
			Filename:  a.Filename,
			Size:      a.Size,
			VoiceNote: a.VoiceNote || strings.HasPrefix(a.ContentType, "audio/"),
		})
	}
	return out
}

// IsImage reports whether the attachment's MIME type is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}
