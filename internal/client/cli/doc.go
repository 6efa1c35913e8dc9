// Package cli provides the interactive bookshelf command-line client.
//
// It wires configuration and the API client into a small REPL. Typical flow:
// register or log in, put books into the cart, check out, then list and
// download purchased books.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
