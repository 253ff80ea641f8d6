package hub

import (
	"github.com/sirupsen/logrus"

	"collaborative-coderoom/internal/dto"
)

// handleJoin moves a connection from unjoined to joined: it registers the
// participant, subscribes the connection to the room's broadcast group,
// materializes the room, pushes the file snapshot to the joiner, and then
// broadcasts the updated roster to the whole room. The snapshot is queued
// on the joiner's send channel before the roster, so the client always sees
// files first.
func (h *Hub) handleJoin(c *Client, p dto.JoinPayload) {
	logCtx := h.log.WithFields(logrus.Fields{
		"conn_id": c.id,
		"room_id": p.RoomID,
		"user":    p.Username,
	})

	c.roomID = p.RoomID
	h.registry.Register(c.id, p.Username, p.RoomID)

	group, ok := h.rooms[p.RoomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[p.RoomID] = group
	}
	group[c] = struct{}{}

	h.store.EnsureRoom(p.RoomID)

	snapshot, err := dto.NewEnvelope(dto.EventInitializeFiles, dto.InitializeFilesPayload{
		Files: h.store.Files(p.RoomID),
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal file snapshot")
		return
	}
	h.send(c, snapshot)

	roster, err := dto.NewEnvelope(dto.EventJoinedRoster, dto.RosterPayload{
		Users: h.roster(p.RoomID),
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal roster")
		return
	}
	h.broadcast(p.RoomID, roster, nil)
	logCtx.Info("Participant joined room")
}

// handleDisconnect removes the connection from its broadcast group and the
// registry, then tells the remaining participants. A connection that never
// joined produces no broadcast.
func (h *Hub) handleDisconnect(c *Client) {
	logCtx := h.log.WithField("conn_id", c.id)

	if group, ok := h.rooms[c.roomID]; ok {
		if _, member := group[c]; member {
			delete(group, c)
			if len(group) == 0 {
				delete(h.rooms, c.roomID)
				logCtx.WithField("room_id", c.roomID).Debug("Room group empty, removed")
			}
		}
	}
	// Stops the write pump; disconnect arrives exactly once per connection.
	close(c.send)

	p, ok := h.registry.Remove(c.id)
	if !ok || p.RoomID == "" {
		logCtx.Debug("Disconnect of unjoined connection, nothing to broadcast")
		return
	}

	// The group no longer contains the departed connection, so the roster
	// excludes it. The conn id lets clients prune cursors and other
	// per-connection UI state.
	roster, err := dto.NewEnvelope(dto.EventDisconnected, dto.RosterPayload{
		Users:  h.roster(p.RoomID),
		ConnID: c.id,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal disconnect roster")
		return
	}
	h.broadcast(p.RoomID, roster, nil)
	logCtx.WithField("room_id", p.RoomID).Info("Participant disconnected")
}
