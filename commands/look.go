package commands

import "strings"

func registerLook(r *Registry) {
	r.Define(Definition{Name: "look", Aliases: []string{"l"}}, func(ctx *Context) Result {
		target := strings.TrimSpace(ctx.Arg)
		if target == "" || strings.EqualFold(target, "auto") {
			ctx.World.Tell(ctx.Conn, ctx.World.RenderRoom(ctx.Room, ctx.Actor))
			return Result{}
		}
		if desc, ok := ctx.World.LookTarget(ctx.Room, target); ok {
			ctx.World.Tell(ctx.Conn, desc)
			return Result{}
		}
		if desc, ok := ctx.World.LookInInventory(ctx.Actor, target); ok {
			ctx.World.Tell(ctx.Conn, desc)
			return Result{}
		}
		replyf(ctx, "You don't see any %s here.", target)
		return Result{}
	})
}
