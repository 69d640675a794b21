package calc

import "strings"

// Action is what a key press or button click asks the engine to do.
type Action int

const (
	ActionNone Action = iota
	ActionAppend
	ActionBackspace
	ActionClear
	ActionCommit
)

// String returns the action name used in logs and wire messages.
func (a Action) String() string {
	switch a {
	case ActionAppend:
		return "append"
	case ActionBackspace:
		return "backspace"
	case ActionClear:
		return "clear"
	case ActionCommit:
		return "equals"
	default:
		return "none"
	}
}

// KeyAction is a translated input event. Token is set for ActionAppend only.
type KeyAction struct {
	Action Action
	Token  string
}

// ActionForKey translates a key name into an engine action. Both DOM key
// names ("Enter", "Escape") and terminal names ("enter", "esc") are accepted.
// Keys without a meaning yield ActionNone.
func ActionForKey(key string) KeyAction {
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= '0' && c <= '9', c == '.', c == '+', c == '-', c == '(', c == ')':
			return KeyAction{Action: ActionAppend, Token: key}
		case c == '*':
			return KeyAction{Action: ActionAppend, Token: MultiplyGlyph}
		case c == '/':
			return KeyAction{Action: ActionAppend, Token: DivideGlyph}
		case c == '=':
			return KeyAction{Action: ActionCommit}
		}
		return KeyAction{}
	}

	switch strings.ToLower(key) {
	case "enter":
		return KeyAction{Action: ActionCommit}
	case "backspace":
		return KeyAction{Action: ActionBackspace}
	case "escape", "esc", "delete":
		return KeyAction{Action: ActionClear}
	}
	return KeyAction{}
}

// ActionForButton translates a button click. A named action wins over a
// value, and a value that no keypad button carries yields ActionNone.
func ActionForButton(value, action string) KeyAction {
	switch action {
	case "clear":
		return KeyAction{Action: ActionClear}
	case "backspace":
		return KeyAction{Action: ActionBackspace}
	case "equals":
		return KeyAction{Action: ActionCommit}
	}
	if keypadValues[value] {
		return KeyAction{Action: ActionAppend, Token: value}
	}
	return KeyAction{}
}

// Apply performs ka and reports whether the expression or last answer changed.
func (e *Engine) Apply(ka KeyAction) bool {
	beforeExpr, beforeAnswer := e.expr, e.lastAnswer

	switch ka.Action {
	case ActionAppend:
		e.Append(ka.Token)
	case ActionBackspace:
		e.Backspace()
	case ActionClear:
		e.Clear()
	case ActionCommit:
		e.Commit()
	default:
		return false
	}

	return e.expr != beforeExpr || e.lastAnswer != beforeAnswer
}

// Button is one key of the on-screen keypad.
type Button struct {
	Label  string `json:"label"`
	Value  string `json:"value,omitempty"`
	Action string `json:"action,omitempty"`
	// Key is the keyboard shortcut shown next to the button.
	Key string `json:"key"`
}

// KeyAction returns the action a click on b performs.
func (b Button) KeyAction() KeyAction {
	return ActionForButton(b.Value, b.Action)
}

// Keypad is the button layout shared by the terminal and browser front-ends.
var Keypad = [][]Button{
	{
		{Label: "C", Action: "clear", Key: "esc"},
		{Label: "⌫", Action: "backspace", Key: "backspace"},
		{Label: "(", Value: "(", Key: "("},
		{Label: ")", Value: ")", Key: ")"},
	},
	{
		{Label: "7", Value: "7", Key: "7"},
		{Label: "8", Value: "8", Key: "8"},
		{Label: "9", Value: "9", Key: "9"},
		{Label: DivideGlyph, Value: DivideGlyph, Key: "/"},
	},
	{
		{Label: "4", Value: "4", Key: "4"},
		{Label: "5", Value: "5", Key: "5"},
		{Label: "6", Value: "6", Key: "6"},
		{Label: MultiplyGlyph, Value: MultiplyGlyph, Key: "*"},
	},
	{
		{Label: "1", Value: "1", Key: "1"},
		{Label: "2", Value: "2", Key: "2"},
		{Label: "3", Value: "3", Key: "3"},
		{Label: "−", Value: "-", Key: "-"},
	},
	{
		{Label: "0", Value: "0", Key: "0"},
		{Label: ".", Value: ".", Key: "."},
		{Label: "=", Action: "equals", Key: "enter"},
		{Label: "+", Value: "+", Key: "+"},
	},
}

// ButtonForKey returns the keypad button bound to a key, if any.
func ButtonForKey(key string) (Button, bool) {
	k := strings.ToLower(key)
	if k == "escape" || k == "delete" {
		k = "esc"
	}
	if k == "=" {
		k = "enter"
	}
	for _, row := range Keypad {
		for _, b := range row {
			if b.Key == k {
				return b, true
			}
		}
	}
	return Button{}, false
}

var keypadValues = func() map[string]bool {
	values := make(map[string]bool)
	for _, row := range Keypad {
		for _, b := range row {
			if b.Value != "" {
				values[b.Value] = true
			}
		}
	}
	return values
}()
