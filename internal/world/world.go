package world

import "embermoor/internal/store"

// World owns every live arena and the room graph. Only the pulse loop ever
// calls its methods — no locking.
type World struct {
	Connections store.Store[Connection]
	Characters  store.Store[Character]
	Objects     store.Store[Object]

	Rooms map[RoomID]*Room

	// roomChars and roomObjects are per-room auxiliary indexes, kept in
	// lockstep with every move/pickup/drop/give.
	roomChars   map[RoomID][]store.Handle
	roomObjects map[RoomID][]store.Handle
}

// New returns an empty world with the given room graph.
func New(rooms map[RoomID]*Room) *World {
	return &World{
		Rooms:       rooms,
		roomChars:   make(map[RoomID][]store.Handle),
		roomObjects: make(map[RoomID][]store.Handle),
	}
}

// RoomCharacters returns the handles of characters currently in room.
func (w *World) RoomCharacters(room RoomID) []store.Handle {
	return w.roomChars[room]
}

// RoomObjects returns the handles of objects currently in room.
func (w *World) RoomObjects(room RoomID) []store.Handle {
	return w.roomObjects[room]
}

// SpawnCharacter inserts a live character into the arena and its room's
// member list.
func (w *World) SpawnCharacter(c Character) store.Handle {
	h := w.Characters.Insert(c)
	cp, _ := w.Characters.GetMut(h)
	cp.Handle = h
	w.roomChars[c.Room] = append(w.roomChars[c.Room], h)
	return h
}

// SpawnObjectInRoom inserts a live object into the arena and a room's
// contents list.
func (w *World) SpawnObjectInRoom(o Object, room RoomID) store.Handle {
	o.Placement = InRoom
	o.Room = room
	h := w.Objects.Insert(o)
	op, _ := w.Objects.GetMut(h)
	op.Handle = h
	w.roomObjects[room] = append(w.roomObjects[room], h)
	return h
}

// SpawnObjectInInventory inserts a live object into the arena directly into
// a character's inventory, used when restoring a saved player record's
// items rather than loading an area's room contents.
func (w *World) SpawnObjectInInventory(o Object, owner store.Handle) store.Handle {
	o.Placement = InInventory
	o.Owner = owner
	h := w.Objects.Insert(o)
	op, _ := w.Objects.GetMut(h)
	op.Handle = h
	if c, ok := w.Characters.GetMut(owner); ok {
		c.Inventory = append(c.Inventory, h)
	}
	return h
}

// RemoveCharacter deletes a character from the arena and its room's member
// list.
func (w *World) RemoveCharacter(h store.Handle) (Character, bool) {
	c, ok := w.Characters.Remove(h)
	if !ok {
		return c, false
	}
	w.roomChars[c.Room] = removeHandle(w.roomChars[c.Room], h)
	return c, true
}

func removeHandle(list []store.Handle, h store.Handle) []store.Handle {
	for i, v := range list {
		if v == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// moveCharacterRoom relocates a character's room membership without
// touching connections or broadcasting; callers apply messaging separately.
func (w *World) moveCharacterRoom(h store.Handle, from, to RoomID) {
	w.roomChars[from] = removeHandle(w.roomChars[from], h)
	w.roomChars[to] = append(w.roomChars[to], h)
}

// moveObjectToRoom relocates an object from its current container into a
// room's contents list.
func (w *World) moveObjectToRoom(h store.Handle, room RoomID) {
	o, ok := w.Objects.GetMut(h)
	if !ok {
		return
	}
	switch o.Placement {
	case InRoom:
		w.roomObjects[o.Room] = removeHandle(w.roomObjects[o.Room], h)
	case InInventory:
		if owner, ok := w.Characters.GetMut(o.Owner); ok {
			owner.Inventory = removeHandle(owner.Inventory, h)
		}
	}
	o.Placement = InRoom
	o.Room = room
	w.roomObjects[room] = append(w.roomObjects[room], h)
}

// moveObjectToInventory relocates an object from its current container into
// a character's inventory, placing it at the front (the most recently
// acquired item).
func (w *World) moveObjectToInventory(h store.Handle, owner store.Handle) {
	o, ok := w.Objects.GetMut(h)
	if !ok {
		return
	}
	switch o.Placement {
	case InRoom:
		w.roomObjects[o.Room] = removeHandle(w.roomObjects[o.Room], h)
	case InInventory:
		if prev, ok := w.Characters.GetMut(o.Owner); ok {
			prev.Inventory = removeHandle(prev.Inventory, h)
		}
	}
	o.Placement = InInventory
	o.Owner = owner
	if c, ok := w.Characters.GetMut(owner); ok {
		c.Inventory = append([]store.Handle{h}, c.Inventory...)
	}
}
