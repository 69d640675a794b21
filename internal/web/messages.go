package web

import "github.com/codefionn/rechenschnell/internal/calc"

// Message types
const (
	// Client to server
	MessageTypeKey    = "key"
	MessageTypeButton = "button"

	// Both directions: a client asks for the state, the server pushes it.
	MessageTypeState = "state"

	// Server to client
	MessageTypeError = "error"
)

// WebMessage represents a message sent over WebSocket
type WebMessage struct {
	Type string `json:"type"`

	// For key messages: a DOM key name such as "7", "*" or "Enter".
	Key string `json:"key,omitempty"`

	// For button messages
	Value  string `json:"value,omitempty"`
	Action string `json:"action,omitempty"`

	// For state messages
	State     *StateInfo `json:"state,omitempty"`
	SessionID string     `json:"session_id,omitempty"`

	Error string `json:"error,omitempty"`
}

// StateInfo is the calculator state as shown by the browser.
type StateInfo struct {
	Expression  string  `json:"expression"`
	Preview     float64 `json:"preview"`
	PreviewText string  `json:"preview_text"`
	Valid       bool    `json:"valid"`
	LastAnswer  float64 `json:"last_answer"`
	Error       string  `json:"error,omitempty"`
}

func newStateInfo(st calc.State) *StateInfo {
	return &StateInfo{
		Expression:  st.Expression,
		Preview:     st.Preview,
		PreviewText: st.PreviewText(),
		Valid:       st.Valid,
		LastAnswer:  st.LastAnswer,
		Error:       st.Error,
	}
}

func stateMessage(sessionID string, st calc.State) *WebMessage {
	return &WebMessage{Type: MessageTypeState, SessionID: sessionID, State: newStateInfo(st)}
}

func errorMessage(err string) *WebMessage {
	return &WebMessage{Type: MessageTypeError, Error: err}
}

// EvaluateRequest is the body of POST /api/evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is the reply of POST /api/evaluate.
type EvaluateResponse struct {
	Expression string  `json:"expression"`
	Sanitized  string  `json:"sanitized"`
	Value      float64 `json:"value"`
	Display    string  `json:"display,omitempty"`
	Valid      bool    `json:"valid"`
	Error      string  `json:"error,omitempty"`
}

// KeysRequest is the body of POST /api/sessions/{id}/keys.
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// SessionResponse describes one session and its calculator.
type SessionResponse struct {
	ID    string     `json:"id"`
	State *StateInfo `json:"state"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
