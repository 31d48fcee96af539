package commands

import (
	"embermoor/internal/record"
	"embermoor/internal/store"
	"embermoor/internal/world"
)

func registerSession(r *Registry) {
	r.Define(Definition{Name: "save"}, func(ctx *Context) Result {
		if err := saveCharacter(ctx); err != nil {
			ctx.World.Tell(ctx.Conn, "Your character couldn't be saved.")
			return Result{}
		}
		ctx.World.Tell(ctx.Conn, "Saved.")
		return Result{}
	})

	r.Define(Definition{Name: "quit"}, func(ctx *Context) Result {
		if err := saveCharacter(ctx); err != nil {
			// A failed save aborts the quit; the character is never
			// removed while persistence is unconfirmed.
			ctx.World.Tell(ctx.Conn, "Your character couldn't be saved.")
			return Result{}
		}
		ctx.World.Tell(ctx.Conn, "Goodbye!")
		return Result{Disconnect: true}
	})
}

func saveCharacter(ctx *Context) error {
	c, ok := ctx.World.Characters.Get(ctx.Actor)
	if !ok {
		return nil
	}
	rec := record.Record{
		Name:     ctx.PlayerName,
		Password: ctx.PasswordHash,
		Character: record.Character{
			Keywords:   c.Keywords,
			FormalName: c.FormalName,
			Pronoun:    c.Pronoun.String(),
			InRoom:     int(c.Room),
		},
		Inventory: snapshotInventory(ctx.World, c.Inventory),
	}
	return ctx.Records.Save(rec)
}

func snapshotInventory(w *world.World, handles []store.Handle) []record.ObjectSnapshot {
	out := make([]record.ObjectSnapshot, 0, len(handles))
	for _, h := range handles {
		o, ok := w.Objects.Get(h)
		if !ok {
			continue
		}
		out = append(out, record.ObjectSnapshot{
			Keywords:        o.Keywords,
			Name:            o.Name,
			RoomDescription: o.RoomDescription,
			Description:     o.Description,
		})
	}
	return out
}
