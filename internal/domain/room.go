package domain

// DefaultFileName is the file every room starts with on first join.
const DefaultFileName = "main.py"

// File is one shared text file inside a room. Files are addressed by their
// zero-based position in the room's file list; there is no stable file id,
// so positions shift when an earlier file is deleted.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Room is an isolated collaboration session. It owns the ordered file list;
// the participant roster is derived from live connections, not stored here.
// Rooms are created lazily on first join and live for the process lifetime.
type Room struct {
	ID    string
	Files []File
}

// NewRoom creates a room seeded with the default empty file.
func NewRoom(id string) *Room {
	return &Room{
		ID:    id,
		Files: []File{{Name: DefaultFileName, Content: ""}},
	}
}
