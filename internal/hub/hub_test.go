package hub

import (
	"encoding/json"
	"testing"
	"time"

	"collaborative-coderoom/internal/domain"
	"collaborative-coderoom/internal/dto"
	"collaborative-coderoom/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(store.NewConnectionRegistry(), store.NewRoomStore(), log)
}

// newTestClient builds a client with no underlying connection; tests drive
// the hub handlers directly and read broadcasts off the send channel.
func newTestClient(h *Hub) *Client {
	return NewClient(h, nil)
}

func join(h *Hub, c *Client, roomID, username string) {
	h.handleJoin(c, dto.JoinPayload{RoomID: roomID, Username: username})
}

func event(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(dto.Envelope{Type: eventType, Data: data})
	require.NoError(t, err)
	return raw
}

// received drains everything queued for the client so far.
func received(t *testing.T, c *Client) []dto.Envelope {
	t.Helper()
	var out []dto.Envelope
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var env dto.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func decodePayload(t *testing.T, env dto.Envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestJoin_SnapshotBeforeRoster(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)

	join(h, a, "r1", "Alice")

	msgs := received(t, a)
	require.Len(t, msgs, 2)
	assert.Equal(t, dto.EventInitializeFiles, msgs[0].Type)
	assert.Equal(t, dto.EventJoinedRoster, msgs[1].Type)

	var files dto.InitializeFilesPayload
	decodePayload(t, msgs[0], &files)
	require.Len(t, files.Files, 1)
	assert.Equal(t, domain.File{Name: "main.py", Content: ""}, files.Files[0])

	var roster dto.RosterPayload
	decodePayload(t, msgs[1], &roster)
	assert.Equal(t, []string{"Alice"}, roster.Users)
}

func TestJoin_SecondJoinerRosterReachesBoth(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)

	join(h, a, "r1", "Alice")
	received(t, a) // discard Alice's own join traffic

	join(h, b, "r1", "Bob")

	aMsgs := received(t, a)
	require.Len(t, aMsgs, 1)
	assert.Equal(t, dto.EventJoinedRoster, aMsgs[0].Type)

	bMsgs := received(t, b)
	require.Len(t, bMsgs, 2)

	var roster dto.RosterPayload
	decodePayload(t, aMsgs[0], &roster)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, roster.Users)
}

func TestJoin_EmptyNameListedAsAnonymous(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)

	join(h, a, "r1", "")

	msgs := received(t, a)
	require.Len(t, msgs, 2)
	var roster dto.RosterPayload
	decodePayload(t, msgs[1], &roster)
	assert.Equal(t, []string{"Anonymous"}, roster.Users)
}

func TestCodeChange_ExcludesSender(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventCodeChange, dto.CodeChangePayload{
		RoomID: "r1", Code: "print(1)", FileIndex: 0,
	}))

	assert.Empty(t, received(t, a))

	bMsgs := received(t, b)
	require.Len(t, bMsgs, 1)
	assert.Equal(t, dto.EventCodeChange, bMsgs[0].Type)
	var change dto.CodeChangePayload
	decodePayload(t, bMsgs[0], &change)
	assert.Equal(t, "print(1)", change.Code)
	assert.Equal(t, 0, change.FileIndex)

	// The store applied the edit authoritatively.
	assert.Equal(t, "print(1)", h.store.Files("r1")[0].Content)
}

func TestCodeChange_StaleIndexDropped(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventCodeChange, dto.CodeChangePayload{
		RoomID: "r1", Code: "late", FileIndex: 7,
	}))

	assert.Empty(t, received(t, a))
	assert.Empty(t, received(t, b))
}

func TestCursorChange_ExcludesSender(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventCursorChange, dto.CursorChangePayload{
		RoomID: "r1", Username: "Alice", Position: json.RawMessage(`{"line":3,"col":7}`),
	}))

	assert.Empty(t, received(t, a))
	bMsgs := received(t, b)
	require.Len(t, bMsgs, 1)
	assert.Equal(t, dto.EventCursorChange, bMsgs[0].Type)
}

func TestChatMessage_IncludesSender(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventChatMessage, dto.ChatMessagePayload{
		RoomID: "r1", Username: "Alice", Text: "hi", Timestamp: "10:30",
	}))

	for _, c := range []*Client{a, b} {
		msgs := received(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, dto.EventChatMessage, msgs[0].Type)
		var chat dto.ChatMessagePayload
		decodePayload(t, msgs[0], &chat)
		assert.Equal(t, "hi", chat.Text)
		assert.Equal(t, "Alice", chat.Username)
	}
}

func TestAddFile_BroadcastsAuthoritativeIndex(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(b, event(t, dto.EventAddFile, dto.AddFilePayload{
		RoomID: "r1", File: domain.File{Name: "util.py", Content: ""},
	}))

	for _, c := range []*Client{a, b} {
		msgs := received(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, dto.EventFileAdded, msgs[0].Type)
		var added dto.FileAddedPayload
		decodePayload(t, msgs[0], &added)
		assert.Equal(t, "util.py", added.File.Name)
		assert.Equal(t, 1, added.Index)
	}
}

func TestRenameFile_InvalidIndexSilent(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	join(h, a, "r1", "Alice")
	received(t, a)

	h.dispatch(a, event(t, dto.EventRenameFile, dto.RenameFilePayload{
		RoomID: "r1", FileIndex: 4, NewName: "nope.py",
	}))
	assert.Empty(t, received(t, a))

	h.dispatch(a, event(t, dto.EventRenameFile, dto.RenameFilePayload{
		RoomID: "r1", FileIndex: 0, NewName: "app.py",
	}))
	msgs := received(t, a)
	require.Len(t, msgs, 1)
	assert.Equal(t, dto.EventFileRenamed, msgs[0].Type)
	assert.Equal(t, "app.py", h.store.Files("r1")[0].Name)
}

func TestDeleteFile_ShiftsAndStaleEditNoops(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(b, event(t, dto.EventAddFile, dto.AddFilePayload{
		RoomID: "r1", File: domain.File{Name: "util.py", Content: ""},
	}))
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventDeleteFile, dto.DeleteFilePayload{RoomID: "r1", FileIndex: 0}))

	for _, c := range []*Client{a, b} {
		msgs := received(t, c)
		require.Len(t, msgs, 1)
		assert.Equal(t, dto.EventFileDeleted, msgs[0].Type)
		var removed dto.FileDeletedPayload
		decodePayload(t, msgs[0], &removed)
		assert.Equal(t, 0, removed.FileIndex)
	}

	files := h.store.Files("r1")
	require.Len(t, files, 1)
	assert.Equal(t, "util.py", files[0].Name)

	// An in-flight edit against the old index 1 now misses; nobody hears
	// about it.
	h.dispatch(a, event(t, dto.EventCodeChange, dto.CodeChangePayload{
		RoomID: "r1", Code: "late", FileIndex: 1,
	}))
	assert.Empty(t, received(t, a))
	assert.Empty(t, received(t, b))
}

func TestDisconnect_BroadcastsPrunedRoster(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r1", "Bob")
	received(t, a)
	received(t, b)

	h.handleDisconnect(a)

	bMsgs := received(t, b)
	require.Len(t, bMsgs, 1)
	assert.Equal(t, dto.EventDisconnected, bMsgs[0].Type)
	var roster dto.RosterPayload
	decodePayload(t, bMsgs[0], &roster)
	assert.Equal(t, []string{"Bob"}, roster.Users)
	assert.Equal(t, a.ID(), roster.ConnID)

	_, ok := h.registry.Lookup(a.ID())
	assert.False(t, ok)
}

func TestDisconnect_NeverJoinedIsNoop(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, b, "r1", "Bob")
	received(t, b)

	h.handleDisconnect(a)

	assert.Empty(t, received(t, b))
}

func TestDispatch_MalformedEventDropped(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	join(h, a, "r1", "Alice")
	received(t, a)

	h.dispatch(a, []byte("{not json"))
	h.dispatch(a, []byte(`{"type":"code-change","data":"not an object"}`))
	h.dispatch(a, []byte(`{"type":"no-such-event","data":{}}`))

	assert.Empty(t, received(t, a))
}

func TestBroadcastIsolatedPerRoom(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h)
	b := newTestClient(h)
	join(h, a, "r1", "Alice")
	join(h, b, "r2", "Bob")
	received(t, a)
	received(t, b)

	h.dispatch(a, event(t, dto.EventChatMessage, dto.ChatMessagePayload{
		RoomID: "r1", Username: "Alice", Text: "only r1",
	}))

	assert.Len(t, received(t, a), 1)
	assert.Empty(t, received(t, b))
}

func TestRunLoop_ProcessesQueuedEvents(t *testing.T) {
	h := newTestHub()
	go h.Run()
	defer h.Close()

	a := newTestClient(h)
	require.True(t, h.QueueMessage(HubMessage{
		Kind:   msgEvent,
		Client: a,
		RawData: event(t, dto.EventJoin, dto.JoinPayload{
			RoomID: "r1", Username: "Alice",
		}),
	}))

	deadline := time.After(2 * time.Second)
	var msgs []dto.Envelope
	for len(msgs) < 2 {
		select {
		case raw := <-a.send:
			var env dto.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			msgs = append(msgs, env)
		case <-deadline:
			t.Fatalf("timed out waiting for join responses, got %d", len(msgs))
		}
	}
	assert.Equal(t, dto.EventInitializeFiles, msgs[0].Type)
	assert.Equal(t, dto.EventJoinedRoster, msgs[1].Type)
}

func TestRoster_DuplicateNamesAllowed(t *testing.T) {
	h := newTestHub()
	var clients []*Client
	for i := 0; i < 3; i++ {
		c := newTestClient(h)
		join(h, c, "r1", "Alice")
		clients = append(clients, c)
	}

	msgs := received(t, clients[2])
	require.NotEmpty(t, msgs)
	var roster dto.RosterPayload
	decodePayload(t, msgs[len(msgs)-1], &roster)
	assert.Equal(t, []string{"Alice", "Alice", "Alice"}, roster.Users)
}
