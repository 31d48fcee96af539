package world

import "testing"

func twoRoomWorld() (*World, RoomID, RoomID) {
	room1 := &Room{
		ID:   1,
		Name: "The Square",
		Exits: []Exit{
			{To: 2, Dir: StandardDirections[0]}, // north
		},
	}
	room2 := &Room{
		ID:   2,
		Name: "The Alley",
		Exits: []Exit{
			{To: 1, Dir: StandardDirections[1]}, // south
		},
	}
	w := New(map[RoomID]*Room{1: room1, 2: room2})
	return w, 1, 2
}

func TestMoveTraversesExitAndBroadcastsMessages(t *testing.T) {
	w, r1, r2 := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Keywords: []string{"alice"}, FormalName: "Alice", Room: r1, IsPlayer: true})
	bob := w.SpawnCharacter(Character{Keywords: []string{"bob"}, FormalName: "Bob", Room: r1, IsPlayer: true})
	_ = bob

	result := w.Move(alice, "n")
	if !result.Moved {
		t.Fatalf("Move failed: %s", result.FailReason)
	}
	if result.LeaveMessage != "Alice leaves north." {
		t.Fatalf("LeaveMessage = %q", result.LeaveMessage)
	}
	if result.ArriveMessage != "Alice arrives from the south." {
		t.Fatalf("ArriveMessage = %q", result.ArriveMessage)
	}

	c, _ := w.Characters.Get(alice)
	if c.Room != r2 {
		t.Fatalf("Alice's room = %v, want %v", c.Room, r2)
	}
	for _, h := range w.RoomCharacters(r1) {
		if h == alice {
			t.Fatalf("Alice should no longer be listed in room 1")
		}
	}
	found := false
	for _, h := range w.RoomCharacters(r2) {
		if h == alice {
			found = true
		}
	}
	if !found {
		t.Fatalf("Alice should be listed in room 2")
	}
}

func TestMoveNoExitLeavesStateUnchanged(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Keywords: []string{"alice"}, Room: r1, IsPlayer: true})

	result := w.Move(alice, "east")
	if result.Moved {
		t.Fatalf("expected move to fail, east has no exit")
	}
	if result.FailReason != "You can't go that way." {
		t.Fatalf("FailReason = %q", result.FailReason)
	}
	c, _ := w.Characters.Get(alice)
	if c.Room != r1 {
		t.Fatalf("character should not have moved")
	}
}

func TestGetMovesObjectToInventoryAndFront(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Keywords: []string{"alice"}, FormalName: "Alice", Room: r1, IsPlayer: true})
	key := w.SpawnObjectInRoom(Object{Keywords: []string{"key"}, Name: "rusty key"}, r1)

	result := w.Get(alice, "key")
	if !result.OK || result.Reply != "You get rusty key." {
		t.Fatalf("Get result = %+v", result)
	}
	if result.Bystand != "Alice gets rusty key." {
		t.Fatalf("Bystand = %q", result.Bystand)
	}
	c, _ := w.Characters.Get(alice)
	if len(c.Inventory) != 1 || c.Inventory[0] != key {
		t.Fatalf("inventory = %v, want [key]", c.Inventory)
	}
	o, _ := w.Objects.Get(key)
	if o.Placement != InInventory || o.Owner != alice {
		t.Fatalf("object placement = %+v, want InInventory owned by alice", o)
	}
	if len(w.RoomObjects(r1)) != 0 {
		t.Fatalf("room should no longer list the key")
	}
}

func TestGetNoArgumentPromptsGetWhat(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Room: r1, IsPlayer: true})
	if result := w.Get(alice, ""); result.Reply != "Get what?" {
		t.Fatalf("Reply = %q, want \"Get what?\"", result.Reply)
	}
}

func TestGetNoMatchRepliesThatIsntHere(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Room: r1, IsPlayer: true})
	if result := w.Get(alice, "key"); result.Reply != "That isn't here." {
		t.Fatalf("Reply = %q, want \"That isn't here.\"", result.Reply)
	}
}

func TestDropReturnsObjectToRoom(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Keywords: []string{"alice"}, FormalName: "Alice", Room: r1, IsPlayer: true})
	key := w.SpawnObjectInRoom(Object{Keywords: []string{"key"}, Name: "rusty key"}, r1)
	w.Get(alice, "key")

	result := w.Drop(alice, "key")
	if !result.OK || result.Reply != "You drop rusty key." {
		t.Fatalf("Drop result = %+v", result)
	}
	o, _ := w.Objects.Get(key)
	if o.Placement != InRoom || o.Room != r1 {
		t.Fatalf("object should be back in room 1, got %+v", o)
	}
}

func TestDropNotCarryingReplies(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Room: r1, IsPlayer: true})
	if result := w.Drop(alice, "key"); result.Reply != "You aren't carrying that." {
		t.Fatalf("Reply = %q", result.Reply)
	}
}

func TestGiveMovesObjectToTargetInventory(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Keywords: []string{"alice"}, FormalName: "Alice", Room: r1, IsPlayer: true})
	bob := w.SpawnCharacter(Character{Keywords: []string{"bob"}, FormalName: "Bob", Room: r1, IsPlayer: true})
	key := w.SpawnObjectInRoom(Object{Keywords: []string{"key"}, Name: "rusty key"}, r1)
	w.Get(alice, "key")

	result := w.Give(alice, "key", "bob")
	if !result.OK {
		t.Fatalf("Give failed: %s", result.Reply)
	}
	if result.Target != bob || result.Object != key {
		t.Fatalf("Give result = %+v", result)
	}
	bobChar, _ := w.Characters.Get(bob)
	if len(bobChar.Inventory) != 1 || bobChar.Inventory[0] != key {
		t.Fatalf("bob's inventory = %v", bobChar.Inventory)
	}
}

func TestRemoveCharacterClearsRoomMembership(t *testing.T) {
	w, r1, _ := twoRoomWorld()
	alice := w.SpawnCharacter(Character{Room: r1})
	w.RemoveCharacter(alice)
	for _, h := range w.RoomCharacters(r1) {
		if h == alice {
			t.Fatalf("removed character still listed in room")
		}
	}
}
