package main

import (
	"context"
	"os"
	"os/signal"

	"dashboard/cmd/dashctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	commands.ExecuteContext(ctx)
}
