package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kekzl/mailcow-ai-filter/internal/utils"
)

func newTestExtractor(previewSize int) *SummaryExtractor {
	return NewSummaryExtractor(utils.NewTextProcessor(zap.NewNop()), previewSize)
}

func TestExtractNormalizesSender(t *testing.T) {
	extractor := newTestExtractor(200)

	summary := extractor.Extract(RawMessage{
		From:    "Amazon Orders <Order@Amazon.DE>",
		Subject: "  Your order has shipped  ",
		Body:    "Hello,\n\nyour package is on its way.",
		Folder:  "INBOX",
	})

	assert.Equal(t, "order@amazon.de", summary.Sender)
	assert.Equal(t, "Your order has shipped", summary.Subject)
	assert.Equal(t, "INBOX", summary.Folder)
	assert.Equal(t, "Hello,\n\nyour package is on its way.", summary.BodyPreview)
}

func TestExtractBareAddressFallback(t *testing.T) {
	extractor := newTestExtractor(200)

	summary := extractor.Extract(RawMessage{From: "  NOREPLY@GitHub.com  "})
	assert.Equal(t, "noreply@github.com", summary.Sender)
}

func TestExtractTruncatesBodyPreview(t *testing.T) {
	extractor := newTestExtractor(10)

	summary := extractor.Extract(RawMessage{
		From: "a@b.com",
		Body: strings.Repeat("x", 100),
	})

	assert.Len(t, summary.BodyPreview, 10)
}

func TestExtractAllPreservesOrder(t *testing.T) {
	extractor := newTestExtractor(200)
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	summaries := extractor.ExtractAll([]RawMessage{
		{From: "a@x.com", Subject: "first", Date: when},
		{From: "b@x.com", Subject: "second"},
	})

	require.Len(t, summaries, 2)
	assert.Equal(t, "first", summaries[0].Subject)
	assert.Equal(t, when, summaries[0].ReceivedAt)
	assert.Equal(t, "second", summaries[1].Subject)
}

func TestEmbeddingTextUsesDomainAndExcludesFolder(t *testing.T) {
	text := EmbeddingText(EmailSummary{
		Sender:      "order@amazon.de",
		Subject:     "Order confirmed",
		Folder:      "INBOX/Shopping",
		BodyPreview: "Thanks for your purchase",
	})

	assert.Equal(t, "from: amazon.de\nsubject: Order confirmed\nbody: Thanks for your purchase", text)
	assert.NotContains(t, text, "INBOX")
}

func TestEmbeddingTextWithoutBody(t *testing.T) {
	text := EmbeddingText(EmailSummary{Sender: "bounce-list", Subject: "hello"})
	assert.Equal(t, "from: bounce-list\nsubject: hello", text)
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "amazon.de", EmailSummary{Sender: "order@amazon.de"}.SenderDomain())
	assert.Equal(t, "", EmailSummary{Sender: "no-at-sign"}.SenderDomain())
	assert.Equal(t, "", EmailSummary{Sender: "trailing@"}.SenderDomain())
}
