package labeler

import (
	"fmt"
	"strings"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

const patternGrammarRules = `Pattern format rules:
- "from:@domain.com" matches every sender at that domain
- "from:person@domain.com" matches one exact sender address
- "subject:word1,word2" matches when the subject contains any listed keyword

Use ONLY real domains that appear in the emails above. Never invent
placeholder domains such as example.com or test.com, and avoid overly
generic domains such as mail.com or email.com.`

const folderRules = `Folder naming rules:
- Use a short descriptive folder name, optionally hierarchical as "Parent/Child"
- Prefer reusing one of the existing folders when the emails clearly belong there
- Never use "/" at the start or end of the folder path`

const responseExample = "Respond with ONLY a JSON object in this exact format:\n" +
	"```json\n" +
	`{
  "name": "Order Confirmations",
  "description": "Purchase and shipping confirmations from online shops",
  "patterns": ["from:@amazon.de", "subject:order,shipped"],
  "suggested_folder": "Shopping/Orders",
  "confidence": 0.85,
  "example_subjects": ["Your order has shipped"]
}` + "\n```"

// buildClusterPrompt renders the labeling request for one cluster: its
// representative emails, the cluster size, and the mailbox's existing
// folders as reuse hints.
func buildClusterPrompt(representatives []core.EmailSummary, clusterSize int, existingFolders []string) string {
	var b strings.Builder

	b.WriteString("You are an email organization assistant. Below are representative emails ")
	fmt.Fprintf(&b, "from a group of %d similar emails found in a mailbox.\n\n", clusterSize)

	writeEmailList(&b, representatives)
	writeExistingFolders(&b, existingFolders)

	b.WriteString("Identify what these emails have in common and propose ONE category for the whole group.\n\n")
	b.WriteString(patternGrammarRules)
	b.WriteString("\n\n")
	b.WriteString(folderRules)
	b.WriteString("\n\n")
	b.WriteString(responseExample)

	return b.String()
}

// buildDirectPrompt renders the single-request fallback used when the corpus
// is too small to cluster: the model sees the whole sample and proposes
// multiple categories at once.
func buildDirectPrompt(sample []core.EmailSummary, existingFolders []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an email organization assistant. Below are %d emails from a mailbox.\n\n", len(sample))

	writeEmailList(&b, sample)
	writeExistingFolders(&b, existingFolders)

	b.WriteString("Group these emails into categories for automatic filing. ")
	b.WriteString("Propose between 1 and 5 categories; leave unclear emails uncategorized.\n\n")
	b.WriteString(patternGrammarRules)
	b.WriteString("\n\n")
	b.WriteString(folderRules)
	b.WriteString("\n\n")
	b.WriteString("Respond with ONLY a JSON object of the form " +
		`{"categories": [...]}` +
		" where each entry follows this format:\n")
	b.WriteString("```json\n" +
		`{
  "name": "Order Confirmations",
  "description": "Purchase and shipping confirmations from online shops",
  "patterns": ["from:@amazon.de", "subject:order,shipped"],
  "suggested_folder": "Shopping/Orders",
  "confidence": 0.85,
  "example_subjects": ["Your order has shipped"]
}` + "\n```")

	return b.String()
}

func writeEmailList(b *strings.Builder, summaries []core.EmailSummary) {
	for i, s := range summaries {
		fmt.Fprintf(b, "Email %d:\n", i+1)
		fmt.Fprintf(b, "  From: %s\n", s.Sender)
		fmt.Fprintf(b, "  Subject: %s\n", s.Subject)
		if s.BodyPreview != "" {
			fmt.Fprintf(b, "  Preview: %s\n", s.BodyPreview)
		}
		b.WriteString("\n")
	}
}

func writeExistingFolders(b *strings.Builder, existingFolders []string) {
	if len(existingFolders) == 0 {
		return
	}
	b.WriteString("Existing folders in this mailbox:\n")
	for _, folder := range existingFolders {
		fmt.Fprintf(b, "  - %s\n", folder)
	}
	b.WriteString("\n")
}
