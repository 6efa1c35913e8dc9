package cli

import (
	"bufio"
	"context"
	"fmt"
	"time"
)

const pingTimeout = 3 * time.Second

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Root prints a greeting, reports whether the server is reachable and runs
// the REPL on the app's input until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to bookshelf CLI (type 'help' for commands)")

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.api.Ping(pingCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(a.out, "Server %s is not reachable: %s\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
