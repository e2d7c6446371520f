package commands

import (
	"context"
)

// ChatHandlerFactory creates handlers for input no rule understood. They only
// acknowledge it.
type ChatHandlerFactory struct {
	rsp *Responses
}

func (f *ChatHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmd Command) (Result, error) {
		return Result{
			Response: f.rsp.Render(RspChat, map[string]any{"Message": cmd.Parameters.Message}),
		}, nil
	}, nil
}
