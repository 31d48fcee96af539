package commands

import (
	"strings"

	"embermoor/internal/broadcast"
	"embermoor/internal/world"
)

func registerMovement(r *Registry) {
	for _, d := range world.StandardDirections {
		dir := d.Leaving
		r.Define(Definition{Name: dir}, func(ctx *Context) Result {
			return move(ctx, dir)
		})
	}
	r.Define(Definition{Name: "go"}, func(ctx *Context) Result {
		return move(ctx, strings.TrimSpace(ctx.Arg))
	})
}

func move(ctx *Context, direction string) Result {
	result := ctx.World.Move(ctx.Actor, direction)
	if !result.Moved {
		replyf(ctx, "%s", result.FailReason)
		return Result{}
	}

	broadcastTo(ctx.World, result.FromRoom, broadcast.NotSubject(ctx.Actor), result.LeaveMessage)
	broadcastTo(ctx.World, result.ToRoom, broadcast.NotSubject(ctx.Actor), result.ArriveMessage)

	if ctx.Conn.Valid() {
		ctx.World.AppendOutput(ctx.Conn, []byte(ctx.World.RenderRoom(result.ToRoom, ctx.Actor)))
	}
	return Result{}
}
