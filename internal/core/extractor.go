package core

import (
	"net/mail"
	"strings"

	"github.com/kekzl/mailcow-ai-filter/internal/utils"
)

// SummaryExtractor reduces raw messages to the bounded attributes the
// pipeline works with
type SummaryExtractor struct {
	textProcessor   *utils.TextProcessor
	bodyPreviewSize int
}

// NewSummaryExtractor creates a new summary extractor
func NewSummaryExtractor(textProcessor *utils.TextProcessor, bodyPreviewSize int) *SummaryExtractor {
	return &SummaryExtractor{
		textProcessor:   textProcessor,
		bodyPreviewSize: bodyPreviewSize,
	}
}

// Extract builds an EmailSummary from a raw message. The body preview is
// truncated to the configured size and sanitized to valid UTF-8.
func (e *SummaryExtractor) Extract(msg RawMessage) EmailSummary {
	return EmailSummary{
		Sender:      normalizeAddress(msg.From),
		Subject:     strings.TrimSpace(msg.Subject),
		Folder:      msg.Folder,
		BodyPreview: e.textProcessor.ProcessText(strings.TrimSpace(msg.Body), e.bodyPreviewSize),
		ReceivedAt:  msg.Date,
	}
}

// ExtractAll builds summaries for a batch of raw messages, preserving order
func (e *SummaryExtractor) ExtractAll(msgs []RawMessage) []EmailSummary {
	summaries := make([]EmailSummary, 0, len(msgs))
	for _, msg := range msgs {
		summaries = append(summaries, e.Extract(msg))
	}
	return summaries
}

// EmbeddingText renders the summary as the text sent to the embedding
// provider. Sender domain, subject and preview carry the signal; the folder
// is deliberately excluded so existing filing does not bias clustering.
func EmbeddingText(s EmailSummary) string {
	var b strings.Builder
	b.WriteString("from: ")
	if domain := s.SenderDomain(); domain != "" {
		b.WriteString(domain)
	} else {
		b.WriteString(s.Sender)
	}
	b.WriteString("\nsubject: ")
	b.WriteString(s.Subject)
	if s.BodyPreview != "" {
		b.WriteString("\nbody: ")
		b.WriteString(s.BodyPreview)
	}
	return b.String()
}

// normalizeAddress reduces a display-name address ("Name <a@b>") to the bare
// address, lowercased
func normalizeAddress(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}
