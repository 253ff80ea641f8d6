package domain

// AnonymousName is substituted for an empty display name when a roster is
// computed. Join itself accepts any name, including empty or duplicate ones.
const AnonymousName = "Anonymous"

// Participant ties a live connection to a display name and a room. The
// connection id is unique per connection; the display name is whatever the
// client sent and carries no uniqueness guarantee.
type Participant struct {
	ConnID      string
	DisplayName string
	RoomID      string
}

// RosterName returns the display name to show in a roster.
func (p Participant) RosterName() string {
	if p.DisplayName == "" {
		return AnonymousName
	}
	return p.DisplayName
}
