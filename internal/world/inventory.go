package world

import (
	"fmt"

	"embermoor/internal/store"
	"embermoor/internal/text"
)

// InventoryResult carries the outcome and messages of get/drop/give.
type InventoryResult struct {
	OK      bool
	Reply   string // sent to the actor only, regardless of OK (prompt errors and success alike)
	Object  store.Handle
	Bystand string // sent to everyone else in the room, empty if none
}

func findObjectByKeyword(w *World, handles []store.Handle, query string) (store.Handle, bool) {
	var table []text.KV[store.Handle]
	for _, h := range handles {
		if o, ok := w.Objects.Get(h); ok {
			for _, kw := range o.Keywords {
				table = append(table, text.KV[store.Handle]{Key: kw, Value: h})
			}
		}
	}
	return text.Lookup(table, query)
}

func findCharacterByKeyword(w *World, handles []store.Handle, query string) (store.Handle, bool) {
	var table []text.KV[store.Handle]
	for _, h := range handles {
		if c, ok := w.Characters.Get(h); ok {
			for _, kw := range c.Keywords {
				table = append(table, text.KV[store.Handle]{Key: kw, Value: h})
			}
		}
	}
	return text.Lookup(table, query)
}

// Get moves a room object, selected by keyword, to the front of actor's
// inventory.
func (w *World) Get(actor store.Handle, query string) InventoryResult {
	if query == "" {
		return InventoryResult{Reply: "Get what?"}
	}
	c, ok := w.Characters.Get(actor)
	if !ok {
		return InventoryResult{Reply: "Get what?"}
	}
	objH, ok := findObjectByKeyword(w, w.roomObjects[c.Room], query)
	if !ok {
		return InventoryResult{Reply: "That isn't here."}
	}
	obj, _ := w.Objects.Get(objH)
	w.moveObjectToInventory(objH, actor)
	return InventoryResult{
		OK:      true,
		Reply:   fmt.Sprintf("You get %s.", obj.Name),
		Object:  objH,
		Bystand: fmt.Sprintf("%s gets %s.", c.FormalName, obj.Name),
	}
}

// Drop moves an inventory object, selected by keyword, into actor's room.
func (w *World) Drop(actor store.Handle, query string) InventoryResult {
	if query == "" {
		return InventoryResult{Reply: "Drop what?"}
	}
	c, ok := w.Characters.Get(actor)
	if !ok {
		return InventoryResult{Reply: "Drop what?"}
	}
	objH, ok := findObjectByKeyword(w, c.Inventory, query)
	if !ok {
		return InventoryResult{Reply: "You aren't carrying that."}
	}
	obj, _ := w.Objects.Get(objH)
	w.moveObjectToRoom(objH, c.Room)
	return InventoryResult{
		OK:      true,
		Reply:   fmt.Sprintf("You drop %s.", obj.Name),
		Object:  objH,
		Bystand: fmt.Sprintf("%s drops %s.", c.FormalName, obj.Name),
	}
}

// GiveResult carries the three distinct messages a give produces: subject,
// target, and bystander broadcasts.
type GiveResult struct {
	OK             bool
	Reply          string
	SubjectMessage string // to the actor (same as Reply on success)
	TargetMessage  string // to the recipient
	BystandMessage string // to everyone else in the room
	Target         store.Handle
	Object         store.Handle
}

// Give moves an inventory object, selected by keyword, into a co-located
// target's inventory, selected by keyword.
func (w *World) Give(actor store.Handle, objectQuery, targetQuery string) GiveResult {
	if objectQuery == "" || targetQuery == "" {
		return GiveResult{Reply: "Give what to whom?"}
	}
	c, ok := w.Characters.Get(actor)
	if !ok {
		return GiveResult{Reply: "Give what to whom?"}
	}
	objH, ok := findObjectByKeyword(w, c.Inventory, objectQuery)
	if !ok {
		return GiveResult{Reply: "You aren't carrying that."}
	}
	var candidates []store.Handle
	for _, h := range w.roomChars[c.Room] {
		if h != actor {
			candidates = append(candidates, h)
		}
	}
	targetH, ok := findCharacterByKeyword(w, candidates, targetQuery)
	if !ok {
		return GiveResult{Reply: "They aren't here."}
	}

	obj, _ := w.Objects.Get(objH)
	target, _ := w.Characters.Get(targetH)
	w.moveObjectToInventory(objH, targetH)

	return GiveResult{
		OK:             true,
		Reply:          fmt.Sprintf("You give %s to %s.", obj.Name, target.ShortName()),
		SubjectMessage: fmt.Sprintf("You give %s to %s.", obj.Name, target.ShortName()),
		TargetMessage:  fmt.Sprintf("%s gives you %s.", c.ShortName(), obj.Name),
		BystandMessage: fmt.Sprintf("%s gives %s to %s.", c.ShortName(), obj.Name, target.ShortName()),
		Target:         targetH,
		Object:         objH,
	}
}
