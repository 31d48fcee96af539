// Package area loads read-only area bundles at startup: rooms, their
// load-time objects, and their load-time NPCs. Area files are
// self-describing JSON.
package area

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"embermoor/internal/world"
)

// Door mirrors world.Door for (de)serialization.
type Door struct {
	Lockable bool `json:"lockable,omitempty"`
	Locked   bool `json:"locked,omitempty"`
	Closed   bool `json:"closed,omitempty"`
}

// Exit is one room edge as authored in an area file.
type Exit struct {
	To       int    `json:"to"`
	Dir      string `json:"dir"`
	Arriving string `json:"arriving,omitempty"`
	Door     *Door  `json:"door,omitempty"`
}

// Room is one room as authored in an area file.
type Room struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Exits       []Exit `json:"exits"`
	LoadObjects []int  `json:"load-objects,omitempty"`
}

// ObjectDef is one object definition as authored in an area file.
type ObjectDef struct {
	ID              int      `json:"id"`
	Keywords        []string `json:"keywords"`
	Name            string   `json:"name"`
	RoomDescription string   `json:"room-description"`
	Description     string   `json:"description,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// CharacterDef is one NPC definition as authored in an area file.
type CharacterDef struct {
	ID              int      `json:"id"`
	Keywords        []string `json:"keywords"`
	FormalName      string   `json:"formal-name"`
	Description     string   `json:"description,omitempty"`
	RoomDescription string   `json:"room-description,omitempty"`
	Pronoun         string   `json:"pronoun,omitempty"`
	Home            int      `json:"home,omitempty"`
}

// File is the top-level document in areas/<name>.json.
type File struct {
	Name    string         `json:"name"`
	Author  string         `json:"author,omitempty"`
	NPCs    []CharacterDef `json:"npcs,omitempty"`
	Objects []ObjectDef    `json:"objects,omitempty"`
	Rooms   []Room         `json:"rooms"`
}

// directionTable maps an authored `dir` string to one of the six built-in
// directions (four cardinals plus up/down). For any other string LoadDir
// builds a custom direction whose name is both its own leaving and arriving
// preposition — there is no mirror/inversion rule for custom directions.
func directionTable() map[string]world.Direction {
	table := make(map[string]world.Direction, len(world.StandardDirections))
	for _, d := range world.StandardDirections {
		table[d.Leaving] = d
	}
	return table
}

// Loaded is the in-memory result of loading every area file in a directory.
type Loaded struct {
	Rooms      map[world.RoomID]*world.Room
	Objects    map[world.ObjectDefID]world.ObjectDef
	Characters map[world.CharDefID]world.CharacterDef
}

// LoadDir reads every *.json file in dir, in lexical filename order, and
// merges their rooms/objects/npcs into one in-memory set. It then runs an
// exit audit: any exit whose target room id does not resolve is dropped
// with a warning.
func LoadDir(dir string) (*Loaded, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("area: read directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	loaded := &Loaded{
		Rooms:      make(map[world.RoomID]*world.Room),
		Objects:    make(map[world.ObjectDefID]world.ObjectDef),
		Characters: make(map[world.CharDefID]world.CharacterDef),
	}
	dirs := directionTable()

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("area: read %s: %w", name, err)
		}
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("area: decode %s: %w", name, err)
		}

		for _, r := range f.Rooms {
			id := world.RoomID(r.ID)
			if _, exists := loaded.Rooms[id]; exists {
				return nil, fmt.Errorf("area: duplicate room id %d in %s", r.ID, name)
			}
			wr := &world.Room{
				ID:          id,
				Area:        f.Name,
				Name:        r.Name,
				Description: r.Description,
				LoadObjects: intsToObjectDefIDs(r.LoadObjects),
			}
			for _, e := range r.Exits {
				dir, ok := dirs[e.Dir]
				if !ok {
					dir = world.Direction{Leaving: e.Dir, Arriving: e.Dir, Keywords: []string{e.Dir}}
				}
				var door *world.Door
				if e.Door != nil {
					door = &world.Door{Lockable: e.Door.Lockable}
					switch {
					case e.Door.Locked:
						door.State = world.Locked
					case e.Door.Closed:
						door.State = world.Closed
					default:
						door.State = world.Open
					}
				}
				wr.Exits = append(wr.Exits, world.Exit{To: world.RoomID(e.To), Dir: dir, Door: door})
			}
			loaded.Rooms[id] = wr
		}

		for _, o := range f.Objects {
			loaded.Objects[world.ObjectDefID(o.ID)] = world.ObjectDef{
				ID:              world.ObjectDefID(o.ID),
				Keywords:        o.Keywords,
				Name:            o.Name,
				RoomDescription: o.RoomDescription,
				Description:     o.Description,
				Category:        o.Category,
			}
		}

		for _, c := range f.NPCs {
			pronoun, _ := world.ParsePronoun(c.Pronoun)
			loaded.Characters[world.CharDefID(c.ID)] = world.CharacterDef{
				ID:              world.CharDefID(c.ID),
				Keywords:        c.Keywords,
				FormalName:      c.FormalName,
				Description:     c.Description,
				RoomDescription: c.RoomDescription,
				Pronoun:         pronoun,
				Home:            world.RoomID(c.Home),
			}
		}
	}

	auditExits(loaded)
	return loaded, nil
}

// auditExits drops any exit whose target room does not resolve, logging a
// warning for each. Every exit the world sees after loading must point at
// a room that actually exists.
func auditExits(loaded *Loaded) {
	for id, room := range loaded.Rooms {
		kept := room.Exits[:0]
		for _, ex := range room.Exits {
			if _, ok := loaded.Rooms[ex.To]; !ok {
				slog.Warn("dropping exit to missing room", "room", id, "direction", ex.Dir.Leaving, "to", ex.To)
				continue
			}
			kept = append(kept, ex)
		}
		room.Exits = kept
	}
}

func intsToObjectDefIDs(ids []int) []world.ObjectDefID {
	out := make([]world.ObjectDefID, len(ids))
	for i, id := range ids {
		out[i] = world.ObjectDefID(id)
	}
	return out
}
