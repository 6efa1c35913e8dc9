package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	ShowCart(ctx context.Context) error
	Add(ctx context.Context) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
	Checkout(ctx context.Context) error
	Purchases(ctx context.Context) error
	Download(ctx context.Context, itemID string) error
}

// runREPL reads commands line by line from scanner and dispatches them to a.
// The loop exits on scanner EOF or when the user types "exit" or "quit".
//
//	Not logged in:  help, register, login, exit
//	Logged in:      help, cart, add, remove <id>, clear, checkout,
//	                purchases, download <id>, profile, logout, exit
//
// Handlers report their own errors, so the loop ignores the returned values.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("bookshelf%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: cart, add, remove <id>, clear, checkout, purchases, download <id>, profile, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "cart":
			_ = a.ShowCart(ctx)

		case "add":
			_ = a.Add(ctx)

		case "remove":
			if len(args) == 0 {
				printlnFn("Usage: remove <id>")
				continue
			}
			_ = a.Remove(ctx, args[0])

		case "clear":
			_ = a.Clear(ctx)

		case "checkout":
			_ = a.Checkout(ctx)

		case "purchases":
			_ = a.Purchases(ctx)

		case "download":
			if len(args) == 0 {
				printlnFn("Usage: download <id>")
				continue
			}
			_ = a.Download(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
