package assist

import (
	"fmt"
	"strings"
)

// Action is one of the three user-triggered operations.
type Action int

const (
	ActionDescribeScene Action = iota + 1
	ActionExtractText
	ActionSpeakText
)

// Actions lists every action in display order.
var Actions = []Action{ActionDescribeScene, ActionExtractText, ActionSpeakText}

// String returns the short name used in routes, commands, and logs.
func (a Action) String() string {
	switch a {
	case ActionDescribeScene:
		return "describe"
	case ActionExtractText:
		return "extract"
	case ActionSpeakText:
		return "speak"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Label is the button caption shown to users.
func (a Action) Label() string {
	switch a {
	case ActionDescribeScene:
		return "Describe Scene"
	case ActionExtractText:
		return "Extract Text"
	case ActionSpeakText:
		return "Text-to-Speech"
	default:
		return a.String()
	}
}

func (a Action) valid() bool {
	return a >= ActionDescribeScene && a <= ActionSpeakText
}

// ParseAction accepts the short names returned by String, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "describe":
		return ActionDescribeScene, nil
	case "extract":
		return ActionExtractText, nil
	case "speak":
		return ActionSpeakText, nil
	}
	return 0, fmt.Errorf("unknown action %q (use describe, extract, or speak)", s)
}

// State is the assistant's position in its Idle → Ready ⇄ Processing cycle.
type State int

const (
	StateIdle State = iota
	StateReady
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
