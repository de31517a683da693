package session

import "encoding/json"

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"
	TypeJoin    = "session.join"
	TypeLeave   = "session.leave"
	TypeWriter  = "session.writer"

	// Editor commands
	TypeCommand = "cmd"
	TypeAck     = "cmd.ack"
	TypeNack    = "cmd.nack"

	// Replies
	TypeState        = "state"
	TypeFrameRequest = "frame.get"
	TypeFrame        = "frame"
)

// Command is the payload of a cmd message. Args depend on Op.
type Command struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

type AckPayload struct {
	Seq    int64 `json:"seq"`
	Result any   `json:"result,omitempty"`
}

type NackPayload struct {
	Seq    int64  `json:"seq"`
	Reason string `json:"reason"`
}

// StatePayload is broadcast after every accepted command.
type StatePayload struct {
	Scene     json.RawMessage `json:"scene"`
	Selection json.RawMessage `json:"selection"`
	Playback  json.RawMessage `json:"playback"`
	History   json.RawMessage `json:"history"`
}

// FramePayload answers a frame.get with the editor frame at the room's
// current playback time.
type FramePayload struct {
	Frame           int             `json:"frame"`
	Commands        json.RawMessage `json:"commands"`
	SelectionBounds json.RawMessage `json:"selectionBounds"`
}

type WelcomePayload struct {
	ClientID string       `json:"clientId"`
	Writer   bool         `json:"writer"`
	State    StatePayload `json:"state"`
}

type JoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type LeavePayload struct {
	UserID string `json:"userId"`
}

// WriterPayload names the client currently allowed to edit. Empty means
// nobody holds the lease.
type WriterPayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Command arguments ---

type PointArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PointerDownArgs struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button"` // "left" or "right"
	Ctrl   bool    `json:"ctrl"`
}

type SelectArgs struct {
	Kind string `json:"kind,omitempty"` // "spline", "point" or "anchor"; taken from the ID prefix when empty
	ID   string `json:"id"`
}

type SetFieldArgs struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Final bool   `json:"final"`
}

type TimelineArgs struct {
	FPS         int  `json:"fps"`
	TotalFrames int  `json:"totalFrames"`
	Final       bool `json:"final"`
}

type SizeArgs struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type CurveArgs struct {
	Curve string  `json:"curve"` // "scaleCurve" or "easingCurve"
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Final bool    `json:"final"`
}

type ScrubArgs struct {
	Position float64 `json:"position"`
}

type SeekArgs struct {
	Frame int `json:"frame"`
}

type LoopArgs struct {
	Loop bool `json:"loop"`
}

type LoadArgs struct {
	Scene json.RawMessage `json:"scene"`
}

// CurvePayload is the result of the curve query.
type CurvePayload struct {
	Points  []PointArgs `json:"points"`
	Tension float64     `json:"tension"`
}
