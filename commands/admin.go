package commands

// registerAdmin wires the operator-only shutdown verb: only the configured
// admin account may invoke it, and the actual drain/persist/exit sequence
// runs in the pulse loop, which owns every connection's password hash.
func registerAdmin(r *Registry) {
	r.Define(Definition{Name: "shutdown"}, func(ctx *Context) Result {
		if !ctx.IsAdmin {
			ctx.World.Tell(ctx.Conn, "Only the admin account may shut down the server.")
			return Result{}
		}
		return Result{Shutdown: true}
	})
}
