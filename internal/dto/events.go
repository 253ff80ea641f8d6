package dto

import (
	"encoding/json"

	"collaborative-coderoom/internal/domain"
)

// Event names carried on the websocket, client to server.
const (
	EventJoin         = "join"
	EventCodeChange   = "code-change"
	EventCursorChange = "cursor-change"
	EventChatMessage  = "chat-message"
	EventAddFile      = "add-file"
	EventRenameFile   = "rename-file"
	EventDeleteFile   = "delete-file"
)

// Event names carried on the websocket, server to client.
const (
	EventInitializeFiles = "initialize-files"
	EventJoinedRoster    = "joined-roster"
	EventDisconnected    = "disconnected"
	EventFileAdded       = "file-added"
	EventFileRenamed     = "file-renamed"
	EventFileDeleted     = "file-deleted"
)

// Envelope wraps every websocket message in both directions. Data stays raw
// on the inbound side so the relay can decode it per event type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals an outbound payload into a ready-to-send envelope.
func NewEnvelope(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

// JoinPayload is sent once per connection to enter a room.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// CodeChangePayload carries an edit to the file at FileIndex. The sender
// already holds the new content locally and is excluded from the rebroadcast.
type CodeChangePayload struct {
	RoomID    string `json:"roomId,omitempty"`
	Code      string `json:"code"`
	FileIndex int    `json:"fileIndex"`
}

// CursorChangePayload is ephemeral presence state, relayed but never stored.
type CursorChangePayload struct {
	RoomID   string          `json:"roomId,omitempty"`
	Username string          `json:"username"`
	Position json.RawMessage `json:"position"`
}

// ChatMessagePayload is relayed to the whole room, sender included, so every
// client renders messages through the same path.
type ChatMessagePayload struct {
	RoomID    string `json:"roomId,omitempty"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// AddFilePayload requests appending a file to the room's list.
type AddFilePayload struct {
	RoomID string      `json:"roomId,omitempty"`
	File   domain.File `json:"file"`
}

// RenameFilePayload renames the file at FileIndex.
type RenameFilePayload struct {
	RoomID    string `json:"roomId,omitempty"`
	FileIndex int    `json:"fileIndex"`
	NewName   string `json:"newName"`
}

// DeleteFilePayload removes the file at FileIndex. Later files shift down.
type DeleteFilePayload struct {
	RoomID    string `json:"roomId,omitempty"`
	FileIndex int    `json:"fileIndex"`
}

// InitializeFilesPayload is pushed to a joiner before anything else so the
// client can render the room's current state.
type InitializeFilesPayload struct {
	Files []domain.File `json:"files"`
}

// RosterPayload lists the display names currently in the room. Order is
// unspecified; clients must not depend on it. ConnID is set only on the
// disconnected event so clients can prune per-connection UI state.
type RosterPayload struct {
	Users  []string `json:"users"`
	ConnID string   `json:"connId,omitempty"`
}

// FileAddedPayload confirms an append to every client, sender included,
// because the sender needs the authoritative index.
type FileAddedPayload struct {
	File  domain.File `json:"file"`
	Index int         `json:"newIndex"`
}

// FileRenamedPayload confirms a rename to every client.
type FileRenamedPayload struct {
	FileIndex int    `json:"fileIndex"`
	NewName   string `json:"newName"`
}

// FileDeletedPayload confirms a removal to every client.
type FileDeletedPayload struct {
	FileIndex int `json:"fileIndex"`
}
