package world

import (
	"fmt"
	"strings"

	"embermoor/internal/game"
	"embermoor/internal/store"
)

// RenderRoom produces the auto-look rendering: name, bracketed exit summary
// noting closed doors, description, then each object's room description,
// then each other character's room description (or a synthesized
// fallback).
func (w *World) RenderRoom(room RoomID, viewer store.Handle) string {
	r, ok := w.Rooms[room]
	if !ok {
		return "You are nowhere."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\r\n", game.Style(r.Name, game.AnsiBold, game.AnsiCyan))
	fmt.Fprintf(&b, "[%s]\r\n", game.Style(exitSummary(r), game.AnsiGreen))
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\r\n", game.Style(r.Description, game.AnsiItalic, game.AnsiDim))
	}

	for _, h := range w.roomObjects[room] {
		o, ok := w.Objects.Get(h)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s\r\n", o.RoomDescription)
	}

	for _, h := range w.roomChars[room] {
		if h == viewer {
			continue
		}
		c, ok := w.Characters.Get(h)
		if !ok {
			continue
		}
		if c.RoomDescription != "" {
			fmt.Fprintf(&b, "%s\r\n", c.RoomDescription)
		} else {
			fmt.Fprintf(&b, "%s { %s } is here.\r\n", game.HighlightName(c.FormalName), c.ShortName())
		}
	}

	return b.String()
}

func exitSummary(r *Room) string {
	if len(r.Exits) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(r.Exits))
	for _, ex := range r.Exits {
		name := ex.Dir.Leaving
		if ex.Door != nil && ex.Door.State != Open {
			name += " (closed)"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " ")
}

// LookTarget resolves `look <keyword>`: character first, then object,
// within the viewer's current room.
func (w *World) LookTarget(room RoomID, query string) (string, bool) {
	charH, ok := findCharacterByKeyword(w, w.roomChars[room], query)
	if ok {
		c, _ := w.Characters.Get(charH)
		if c.Description != "" {
			return c.Description, true
		}
		return fmt.Sprintf("%s { %s }", c.FormalName, c.ShortName()), true
	}
	objH, ok := findObjectByKeyword(w, w.roomObjects[room], query)
	if ok {
		o, _ := w.Objects.Get(objH)
		if o.Description != "" {
			return o.Description, true
		}
		return o.RoomDescription, true
	}
	return "", false
}

// LookInInventory resolves `look <keyword>` fallback against the viewer's
// own inventory, used when no room match exists.
func (w *World) LookInInventory(viewer store.Handle, query string) (string, bool) {
	c, ok := w.Characters.Get(viewer)
	if !ok {
		return "", false
	}
	objH, ok := findObjectByKeyword(w, c.Inventory, query)
	if !ok {
		return "", false
	}
	o, _ := w.Objects.Get(objH)
	if o.Description != "" {
		return o.Description, true
	}
	return o.RoomDescription, true
}

// RenderInventory lists an actor's carried objects, or a "nothing" message.
func (w *World) RenderInventory(actor store.Handle) string {
	c, ok := w.Characters.Get(actor)
	if !ok || len(c.Inventory) == 0 {
		return "You aren't carrying anything."
	}
	var b strings.Builder
	b.WriteString("You are carrying:\r\n")
	for _, h := range c.Inventory {
		if o, ok := w.Objects.Get(h); ok {
			fmt.Fprintf(&b, "  %s\r\n", o.Name)
		}
	}
	return b.String()
}
