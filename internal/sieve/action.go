package sieve

import "fmt"

// ActionType identifies what an action does to a matched message
type ActionType string

const (
	ActionFileInto ActionType = "fileinto"
	ActionSetFlag  ActionType = "setflag"
	ActionStop     ActionType = "stop"
	ActionDiscard  ActionType = "discard"
)

// Action represents one immutable filter action
type Action struct {
	Type      ActionType
	Parameter string
}

// FileInto creates an action filing the message into the given folder path.
// Hierarchical paths use "/" as separator ("Parent/Child") and are preserved
// verbatim.
func FileInto(folder string) Action {
	return Action{Type: ActionFileInto, Parameter: folder}
}

// MarkAsRead creates an action setting the \Seen flag
func MarkAsRead() Action {
	return Action{Type: ActionSetFlag, Parameter: `\Seen`}
}

// Stop creates an action halting rule evaluation for the message
func Stop() Action {
	return Action{Type: ActionStop}
}

// Discard creates an action silently dropping the message
func Discard() Action {
	return Action{Type: ActionDiscard}
}

// RequiredCapabilities returns the Sieve capabilities this action needs
func (a Action) RequiredCapabilities() []string {
	switch a.Type {
	case ActionFileInto:
		return []string{"fileinto"}
	case ActionSetFlag:
		return []string{"imap4flags"}
	default:
		return nil
	}
}

// ToSieve renders the action in Sieve syntax
func (a Action) ToSieve() string {
	switch a.Type {
	case ActionFileInto:
		return fmt.Sprintf("fileinto %q;", a.Parameter)
	case ActionSetFlag:
		return fmt.Sprintf("setflag %q;", a.Parameter)
	case ActionStop:
		return "stop;"
	case ActionDiscard:
		return "discard;"
	default:
		return fmt.Sprintf("# unsupported action: %s", a.Type)
	}
}

func (a Action) String() string {
	if a.Parameter != "" {
		return fmt.Sprintf("%s(%s)", a.Type, a.Parameter)
	}
	return string(a.Type)
}
