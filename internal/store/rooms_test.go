package store_test

import (
	"testing"

	"collaborative-coderoom/internal/domain"
	"collaborative-coderoom/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStore_EnsureRoom_SeedsDefaultFile(t *testing.T) {
	s := store.NewRoomStore()

	room := s.EnsureRoom("r1")
	require.NotNil(t, room)
	require.Len(t, room.Files, 1)
	assert.Equal(t, domain.DefaultFileName, room.Files[0].Name)
	assert.Equal(t, "", room.Files[0].Content)
}

func TestRoomStore_EnsureRoom_Idempotent(t *testing.T) {
	s := store.NewRoomStore()

	first := s.EnsureRoom("r1")
	s.SetFileContent("r1", 0, "print(1)")

	// Repeated calls must return the same room and never reseed it.
	again := s.EnsureRoom("r1")
	assert.Same(t, first, again)
	require.Len(t, again.Files, 1)
	assert.Equal(t, "print(1)", again.Files[0].Content)
}

func TestRoomStore_Files_ReturnsCopy(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")

	snapshot := s.Files("r1")
	require.Len(t, snapshot, 1)

	snapshot[0].Content = "mutated locally"
	assert.Equal(t, "", s.Files("r1")[0].Content)
}

func TestRoomStore_Files_UnknownRoom(t *testing.T) {
	s := store.NewRoomStore()
	assert.Nil(t, s.Files("nope"))
}

func TestRoomStore_SetFileContent(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")

	assert.True(t, s.SetFileContent("r1", 0, "x = 1"))
	assert.Equal(t, "x = 1", s.Files("r1")[0].Content)

	// Stale references are reported as no-ops, not errors.
	assert.False(t, s.SetFileContent("r1", 1, "y = 2"))
	assert.False(t, s.SetFileContent("r1", -1, "y = 2"))
	assert.False(t, s.SetFileContent("ghost", 0, "y = 2"))
}

func TestRoomStore_AppendFile(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")

	idx := s.AppendFile("r1", domain.File{Name: "util.py"})
	assert.Equal(t, 1, idx)

	files := s.Files("r1")
	require.Len(t, files, 2)
	assert.Equal(t, "util.py", files[1].Name)
}

func TestRoomStore_AppendFile_CreatesRoom(t *testing.T) {
	s := store.NewRoomStore()

	idx := s.AppendFile("fresh", domain.File{Name: "extra.py"})
	// Lazily created rooms still carry the default file at index 0.
	assert.Equal(t, 1, idx)
	files := s.Files("fresh")
	require.Len(t, files, 2)
	assert.Equal(t, domain.DefaultFileName, files[0].Name)
}

func TestRoomStore_RenameFile(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")

	assert.True(t, s.RenameFile("r1", 0, "app.py"))
	assert.Equal(t, "app.py", s.Files("r1")[0].Name)

	assert.False(t, s.RenameFile("r1", 3, "nope.py"))
	assert.False(t, s.RenameFile("ghost", 0, "nope.py"))
}

func TestRoomStore_DeleteFile_ShiftsIndices(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")
	s.AppendFile("r1", domain.File{Name: "util.py"})
	s.AppendFile("r1", domain.File{Name: "test.py"})

	removed, ok := s.DeleteFile("r1", 0)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultFileName, removed.Name)

	files := s.Files("r1")
	require.Len(t, files, 2)
	assert.Equal(t, "util.py", files[0].Name)
	assert.Equal(t, "test.py", files[1].Name)

	// An edit referencing the old tail index is now stale and must no-op.
	assert.False(t, s.SetFileContent("r1", 2, "late edit"))
}

func TestRoomStore_DeleteFile_InvalidIndex(t *testing.T) {
	s := store.NewRoomStore()
	s.EnsureRoom("r1")

	_, ok := s.DeleteFile("r1", 5)
	assert.False(t, ok)
	_, ok = s.DeleteFile("ghost", 0)
	assert.False(t, ok)
	assert.Len(t, s.Files("r1"), 1)
}
