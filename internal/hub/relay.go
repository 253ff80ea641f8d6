package hub

import (
	"encoding/json"

	"collaborative-coderoom/internal/dto"
)

// dispatch decodes an inbound envelope and routes it to the matching
// handler. Malformed payloads and unknown events are dropped: the relay is
// unauthenticated, so a bad frame is treated as noise rather than a fault
// worth reporting to the sender.
func (h *Hub) dispatch(c *Client, raw []byte) {
	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.WithField("conn_id", c.id).WithError(err).Warn("Dropping malformed event")
		return
	}
	logCtx := h.log.WithField("conn_id", c.id).WithField("event", env.Type)

	decode := func(v interface{}) bool {
		if err := json.Unmarshal(env.Data, v); err != nil {
			logCtx.WithError(err).Warn("Dropping event with malformed payload")
			return false
		}
		return true
	}

	switch env.Type {
	case dto.EventJoin:
		var p dto.JoinPayload
		if decode(&p) {
			h.handleJoin(c, p)
		}
	case dto.EventCodeChange:
		var p dto.CodeChangePayload
		if decode(&p) {
			h.handleCodeChange(c, p)
		}
	case dto.EventCursorChange:
		var p dto.CursorChangePayload
		if decode(&p) {
			h.handleCursorChange(c, p)
		}
	case dto.EventChatMessage:
		var p dto.ChatMessagePayload
		if decode(&p) {
			h.handleChatMessage(c, p)
		}
	case dto.EventAddFile:
		var p dto.AddFilePayload
		if decode(&p) {
			h.handleAddFile(c, p)
		}
	case dto.EventRenameFile:
		var p dto.RenameFilePayload
		if decode(&p) {
			h.handleRenameFile(c, p)
		}
	case dto.EventDeleteFile:
		var p dto.DeleteFilePayload
		if decode(&p) {
			h.handleDeleteFile(c, p)
		}
	default:
		logCtx.Warn("Unknown event type")
	}
}

// relay marshals payload and broadcasts it, optionally excluding the
// sender.
func (h *Hub) relay(roomID, eventType string, payload interface{}, exclude *Client) {
	data, err := dto.NewEnvelope(eventType, payload)
	if err != nil {
		h.log.WithField("event", eventType).WithError(err).Error("Failed to marshal broadcast")
		return
	}
	h.broadcast(roomID, data, exclude)
}

// handleCodeChange applies the authoritative edit and relays it to everyone
// else in the room. The sender already holds the new content, so it is
// excluded. A stale room or index is a silent no-op: clients race edits
// against deletes and the relay cannot tell staleness from malice, so it
// drops rather than disrupt the session.
func (h *Hub) handleCodeChange(c *Client, p dto.CodeChangePayload) {
	roomID := p.RoomID
	if !h.store.SetFileContent(roomID, p.FileIndex, p.Code) {
		h.log.WithField("room_id", roomID).WithField("file_index", p.FileIndex).
			Debug("Ignoring code change for stale reference")
		return
	}
	p.RoomID = ""
	h.relay(roomID, dto.EventCodeChange, p, c)
}

// handleCursorChange relays ephemeral cursor positions; nothing is stored.
func (h *Hub) handleCursorChange(c *Client, p dto.CursorChangePayload) {
	roomID := p.RoomID
	p.RoomID = ""
	h.relay(roomID, dto.EventCursorChange, p, c)
}

// handleChatMessage relays chat to the whole room, sender included, so
// every client orders messages through the same path.
func (h *Hub) handleChatMessage(c *Client, p dto.ChatMessagePayload) {
	roomID := p.RoomID
	p.RoomID = ""
	h.relay(roomID, dto.EventChatMessage, p, nil)
}

// handleAddFile appends the file and tells everyone, sender included,
// because only the broadcast carries the authoritative index.
func (h *Hub) handleAddFile(c *Client, p dto.AddFilePayload) {
	index := h.store.AppendFile(p.RoomID, p.File)
	h.relay(p.RoomID, dto.EventFileAdded, dto.FileAddedPayload{File: p.File, Index: index}, nil)
}

// handleRenameFile renames in place; the broadcast goes out only if the
// index was valid.
func (h *Hub) handleRenameFile(c *Client, p dto.RenameFilePayload) {
	if !h.store.RenameFile(p.RoomID, p.FileIndex, p.NewName) {
		h.log.WithField("room_id", p.RoomID).WithField("file_index", p.FileIndex).
			Debug("Ignoring rename for stale reference")
		return
	}
	h.relay(p.RoomID, dto.EventFileRenamed, dto.FileRenamedPayload{FileIndex: p.FileIndex, NewName: p.NewName}, nil)
}

// handleDeleteFile removes the file, shifting later indices down, and tells
// everyone which index disappeared.
func (h *Hub) handleDeleteFile(c *Client, p dto.DeleteFilePayload) {
	if _, ok := h.store.DeleteFile(p.RoomID, p.FileIndex); !ok {
		h.log.WithField("room_id", p.RoomID).WithField("file_index", p.FileIndex).
			Debug("Ignoring delete for stale reference")
		return
	}
	h.relay(p.RoomID, dto.EventFileDeleted, dto.FileDeletedPayload{FileIndex: p.FileIndex}, nil)
}
