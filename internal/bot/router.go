package bot

import (
	"github.com/GK-FY/buybot/internal/admin"
	"github.com/GK-FY/buybot/internal/dialogue"
)

// Router sends each inbound message either to the admin interpreter or to
// the dialogue engine. Non-admins typing admin-shaped text are not told
// "forbidden"; their text is ordinary dialogue input.
type Router struct {
	engine      *dialogue.Engine
	interpreter *admin.Interpreter
	isAdmin     func(id string) bool
}

func NewRouter(engine *dialogue.Engine, interpreter *admin.Interpreter, isAdmin func(id string) bool) *Router {
	return &Router{engine: engine, interpreter: interpreter, isAdmin: isAdmin}
}

// Route handles one inbound message and returns the outbound messages.
func (r *Router) Route(sender, text string) []dialogue.Message {
	if r.isAdmin(sender) {
		return r.interpreter.Handle(sender, text)
	}
	return r.engine.Handle(sender, text)
}
