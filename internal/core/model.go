package core

import (
	"strings"
	"time"
)

// NoiseClusterID is the reserved identifier for summaries too sparse to
// belong to any real cluster.
const NoiseClusterID = -1

// EmailSummary represents the bounded attributes of one sampled message.
// It is created once per message and never mutated.
type EmailSummary struct {
	Sender      string
	Subject     string
	Folder      string
	BodyPreview string
	ReceivedAt  time.Time
}

// SenderDomain returns the domain part of the sender address, or an empty
// string when the address has no domain.
func (s EmailSummary) SenderDomain() string {
	at := strings.LastIndex(s.Sender, "@")
	if at < 0 || at == len(s.Sender)-1 {
		return ""
	}
	return strings.ToLower(s.Sender[at+1:])
}

// Cluster represents one density-based grouping of summaries.
// Members and Representatives index into the summary slice of the run that
// produced the cluster.
type Cluster struct {
	ID              int
	Members         []int
	Representatives []int
}

// Size returns the number of summaries in the cluster
func (c Cluster) Size() int {
	return len(c.Members)
}

// IsNoise reports whether this is the reserved noise cluster
func (c Cluster) IsNoise() bool {
	return c.ID == NoiseClusterID
}

// PatternKind identifies the kind of signal an EmailPattern carries
type PatternKind string

const (
	PatternSenderDomain   PatternKind = "sender_domain"
	PatternSenderAddress  PatternKind = "sender_address"
	PatternSubjectKeyword PatternKind = "subject_keyword"
)

// EmailPattern represents a single detected signal in a group of similar
// emails. Immutable value object.
type EmailPattern struct {
	Kind        PatternKind
	Value       string
	Confidence  float64
	SampleCount int
}

// FilterString renders the pattern in the hint grammar the labeler and the
// condition compiler share (e.g. "from:@github.com", "subject:invoice").
func (p EmailPattern) FilterString() string {
	switch p.Kind {
	case PatternSenderDomain:
		return "from:@" + p.Value
	case PatternSenderAddress:
		return "from:" + p.Value
	case PatternSubjectKeyword:
		return "subject:" + p.Value
	default:
		return string(p.Kind) + ":" + p.Value
	}
}

// Category represents one AI-proposed organizational grouping of emails.
// Instances only exist after schema validation of the raw LLM response;
// confidence is always within [0, 1].
type Category struct {
	Name            string
	Description     string
	Patterns        []string
	SuggestedFolder string
	Confidence      float64
	ExampleSubjects []string
	EmailCount      int
}

// AnalysisReport represents the user-visible counts for one run
type AnalysisReport struct {
	EmailsAnalyzed     int
	ClustersFound      int
	NoiseEmails        int
	CategoriesProduced int
	RulesEmitted       int
	ClustersDropped    int
	Mode               string
	Elapsed            time.Duration
}
