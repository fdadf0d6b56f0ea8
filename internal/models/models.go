package models

import (
	"encoding/json"
	"errors"
)

// AnonymousUser is the identity assigned to unauthenticated connections.
const AnonymousUser = "anonymous"

// Frame type tags shared by inbound and outbound messages.
const (
	TypeTextChange      = "text_change"
	TypeCursorPosition  = "cursor_position"
	TypeDocumentContent = "document_content"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
	TypeError           = "error"
)

var (
	// ErrMalformed marks frames that cannot be parsed or are missing a
	// required field. Such frames are dropped without a reply.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType marks frames whose type tag is not recognized.
	ErrUnknownType = errors.New("unknown message type")
)

// Inbound is the decoded form of a client frame, one variant per type tag.
type Inbound interface{ inbound() }

// TextChangeRequest is a client edit. Content is the full post-edit document
// text; the store is updated to it before any peer sees the change.
type TextChangeRequest struct {
	Operation string
	Position  int
	Content   string
	Text      string
	Length    int
}

func (TextChangeRequest) inbound() {}

// CursorRequest is a client cursor/selection move. No persistence side effect.
type CursorRequest struct {
	Position  int
	Selection json.RawMessage
}

func (CursorRequest) inbound() {}

// envelope is the loose wire form used to probe and validate inbound frames.
// Pointer fields distinguish "absent" from zero values.
type envelope struct {
	Type      string          `json:"type"`
	Operation string          `json:"operation"`
	Position  *int            `json:"position"`
	Content   *string         `json:"content"`
	Text      string          `json:"text"`
	Length    int             `json:"length"`
	Selection json.RawMessage `json:"selection"`
}

func validOperation(op string) bool {
	switch op {
	case "insert", "delete", "replace":
		return true
	}
	return false
}

// DecodeInbound parses a raw frame into its typed variant. Missing required
// fields fail closed into ErrMalformed; unrecognized type tags return
// ErrUnknownType so callers can ignore them without dropping the connection.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformed
	}

	switch env.Type {
	case TypeTextChange:
		if !validOperation(env.Operation) || env.Position == nil || env.Content == nil {
			return nil, ErrMalformed
		}
		return TextChangeRequest{
			Operation: env.Operation,
			Position:  *env.Position,
			Content:   *env.Content,
			Text:      env.Text,
			Length:    env.Length,
		}, nil

	case TypeCursorPosition:
		if env.Position == nil {
			return nil, ErrMalformed
		}
		return CursorRequest{Position: *env.Position, Selection: env.Selection}, nil

	default:
		return nil, ErrUnknownType
	}
}

// Outbound is a server frame addressed to one connection or fanned out to a
// room, one variant per type tag.
type Outbound interface{ outbound() }

// DocumentContent is the initial snapshot, addressed only to the new joiner.
// UserID carries the receiver's own resolved identity.
type DocumentContent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

func (DocumentContent) outbound() {}

type TextChange struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Operation string `json:"operation"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	Length    int    `json:"length"`
	Content   string `json:"content"`
}

func (TextChange) outbound() {}

// CursorPosition relays a peer's cursor. A nil Selection marshals as null.
type CursorPosition struct {
	Type      string          `json:"type"`
	UserID    string          `json:"user_id"`
	Position  int             `json:"position"`
	Selection json.RawMessage `json:"selection"`
}

func (CursorPosition) outbound() {}

type UserJoined struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

func (UserJoined) outbound() {}

type UserLeft struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

func (UserLeft) outbound() {}

// Error is an additive frame for reported failures (e.g. a store write that
// timed out). Malformed or unknown inbound frames never produce one.
type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (Error) outbound() {}

func NewDocumentContent(content, userID string) DocumentContent {
	return DocumentContent{Type: TypeDocumentContent, Content: content, UserID: userID}
}

func NewTextChange(userID string, req TextChangeRequest) TextChange {
	return TextChange{
		Type:      TypeTextChange,
		UserID:    userID,
		Operation: req.Operation,
		Position:  req.Position,
		Text:      req.Text,
		Length:    req.Length,
		Content:   req.Content,
	}
}

func NewCursorPosition(userID string, position int, selection json.RawMessage) CursorPosition {
	return CursorPosition{Type: TypeCursorPosition, UserID: userID, Position: position, Selection: selection}
}

func NewUserJoined(userID string) UserJoined { return UserJoined{Type: TypeUserJoined, UserID: userID} }

func NewUserLeft(userID string) UserLeft { return UserLeft{Type: TypeUserLeft, UserID: userID} }

func NewError(reason string) Error { return Error{Type: TypeError, Error: reason} }
