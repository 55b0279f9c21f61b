package autosave

import "encoding/json"

// Message is the envelope exchanged on an autosave connection. Save carries
// the encoded tree document in Payload; the server answers every save with
// an ack or a nack bearing the same Seq.
type Message struct {
	Type       string          `json:"type"`
	Seq        int64           `json:"seq,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	RevisionID string          `json:"revisionId,omitempty"`
	Error      string          `json:"error,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeWelcome = "welcome"
	TypeSave    = "doc.save"
	TypeAck     = "doc.ack"
	TypeNack    = "doc.nack"
	TypeError   = "error"
)
