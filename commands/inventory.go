package commands

import (
	"strings"

	"embermoor/internal/broadcast"
)

func registerInventory(r *Registry) {
	r.Define(Definition{Name: "inventory", Aliases: []string{"i", "inv"}}, func(ctx *Context) Result {
		ctx.World.Tell(ctx.Conn, ctx.World.RenderInventory(ctx.Actor))
		return Result{}
	})

	getHandler := func(ctx *Context) Result {
		result := ctx.World.Get(ctx.Actor, strings.TrimSpace(ctx.Arg))
		ctx.World.Tell(ctx.Conn, result.Reply)
		if result.OK {
			broadcastTo(ctx.World, ctx.Room, broadcast.NotSubject(ctx.Actor), result.Bystand)
		}
		return Result{}
	}
	r.Define(Definition{Name: "get", Aliases: []string{"take"}}, getHandler)

	r.Define(Definition{Name: "drop"}, func(ctx *Context) Result {
		result := ctx.World.Drop(ctx.Actor, strings.TrimSpace(ctx.Arg))
		ctx.World.Tell(ctx.Conn, result.Reply)
		if result.OK {
			broadcastTo(ctx.World, ctx.Room, broadcast.NotSubject(ctx.Actor), result.Bystand)
		}
		return Result{}
	})

	r.Define(Definition{Name: "give"}, func(ctx *Context) Result {
		objectWord, targetWord, _ := splitTwo(ctx.Arg)
		result := ctx.World.Give(ctx.Actor, objectWord, targetWord)
		ctx.World.Tell(ctx.Conn, result.Reply)
		if result.OK {
			broadcastTo(ctx.World, ctx.Room, broadcast.Subject(result.Target), result.TargetMessage)
			broadcastTo(ctx.World, ctx.Room, broadcast.Neither(ctx.Actor, result.Target), result.BystandMessage)
		}
		return Result{}
	})
}

// splitTwo splits "object target" on the first run of whitespace.
func splitTwo(arg string) (first, second string, ok bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", "", false
	}
	fields := strings.Fields(arg)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
