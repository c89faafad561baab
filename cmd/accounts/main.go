package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tenantkeeper/internal/flagx"
	"github.com/dmitrijs2005/tenantkeeper/internal/server"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/config"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	flags, positional := flagx.SplitArgs(args, config.BoolFlags...)

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if len(positional) == 0 {
		fmt.Fprintln(os.Stderr, server.Usage)
		return 2
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	err = app.Run(ctx, positional)
	if cerr := app.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", cerr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if server.IsUsage(err) {
			fmt.Fprintln(os.Stderr, server.Usage)
			return 2
		}
		return 1
	}
	return 0
}
