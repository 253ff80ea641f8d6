package store

import (
	"sync"

	"collaborative-coderoom/internal/domain"
)

// RoomStore holds the authoritative file set for every room. Rooms are
// created lazily on first use and never destroyed; their lifetime is the
// process lifetime.
//
// File mutations that reference a missing room or an out-of-range index
// report failure instead of erroring: clients can legitimately race an edit
// against a concurrent delete, and the relay treats such staleness as a
// benign no-op.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

// NewRoomStore builds an empty in-memory room store.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*domain.Room),
	}
}

// EnsureRoom returns the room for id, creating it seeded with the default
// file if it does not exist yet. Idempotent.
func (s *RoomStore) EnsureRoom(id string) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		room = domain.NewRoom(id)
		s.rooms[id] = room
	}
	return room
}

// Files returns a copy of the room's file list, or nil if the room does not
// exist. The copy keeps the initializer push independent of later mutations.
func (s *RoomStore) Files(roomID string) []domain.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	files := make([]domain.File, len(room.Files))
	copy(files, room.Files)
	return files
}

// SetFileContent replaces the content of the file at index. Returns false
// without mutating anything if the room or index is invalid.
func (s *RoomStore) SetFileContent(roomID string, index int, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || index < 0 || index >= len(room.Files) {
		return false
	}
	room.Files[index].Content = content
	return true
}

// AppendFile adds a file to the end of the room's list and returns its new
// zero-based index. The room is created if it does not exist yet.
func (s *RoomStore) AppendFile(roomID string, file domain.File) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		room = domain.NewRoom(roomID)
		s.rooms[roomID] = room
	}
	room.Files = append(room.Files, file)
	return len(room.Files) - 1
}

// RenameFile renames the file at index. Returns false if the room or index
// is invalid.
func (s *RoomStore) RenameFile(roomID string, index int, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || index < 0 || index >= len(room.Files) {
		return false
	}
	room.Files[index].Name = newName
	return true
}

// DeleteFile removes the file at index, shifting later files down by one.
// Returns the removed file, or ok=false if the room or index is invalid.
func (s *RoomStore) DeleteFile(roomID string, index int) (domain.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok || index < 0 || index >= len(room.Files) {
		return domain.File{}, false
	}
	removed := room.Files[index]
	room.Files = append(room.Files[:index], room.Files[index+1:]...)
	return removed, true
}
