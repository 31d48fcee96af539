package world

import (
	"fmt"

	"embermoor/internal/store"
	"embermoor/internal/text"
)

// MoveResult carries the messages a Move call produced, for the broadcast
// router to deliver.
type MoveResult struct {
	Moved      bool
	FailReason string // set when Moved is false, e.g. "You can't go that way."

	FromRoom, ToRoom RoomID
	LeaveMessage     string // to everyone left behind in FromRoom
	ArriveMessage    string // to everyone already in ToRoom
}

// findExit resolves a direction query against a room's exits using the
// partial-match rule: match against the leaving keyword and, for custom
// directions, any declared keyword.
func findExit(room *Room, query string) (*Exit, bool) {
	var table []text.KV[*Exit]
	for i := range room.Exits {
		ex := &room.Exits[i]
		for _, kw := range ex.Dir.Keywords {
			table = append(table, text.KV[*Exit]{Key: kw, Value: ex})
		}
	}
	return text.Lookup(table, query)
}

// Move attempts to traverse the named direction from a character's current
// room. It mutates room membership and the character's room on success; on
// failure the world is left unchanged.
func (w *World) Move(h store.Handle, direction string) MoveResult {
	c, ok := w.Characters.Get(h)
	if !ok {
		return MoveResult{FailReason: "You can't go that way."}
	}
	room, ok := w.Rooms[c.Room]
	if !ok {
		return MoveResult{FailReason: "You can't go that way."}
	}
	exit, ok := findExit(room, direction)
	if !ok {
		return MoveResult{FailReason: "You can't go that way."}
	}
	if exit.Door != nil && exit.Door.State != Open {
		return MoveResult{FailReason: fmt.Sprintf("The door to the %s is closed.", exit.Dir.Leaving)}
	}
	to, ok := w.Rooms[exit.To]
	if !ok {
		return MoveResult{FailReason: "You can't go that way."}
	}

	from := c.Room
	w.moveCharacterRoom(h, from, to.ID)
	if cp, ok := w.Characters.GetMut(h); ok {
		cp.Room = to.ID
	}

	name := c.FormalName
	return MoveResult{
		Moved:         true,
		FromRoom:      from,
		ToRoom:        to.ID,
		LeaveMessage:  fmt.Sprintf("%s leaves %s.", name, exit.Dir.Leaving),
		ArriveMessage: fmt.Sprintf("%s arrives from %s.", name, exit.Dir.Arriving),
	}
}
