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
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Totals(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Clear(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or when the user types "exit" or "quit". Command errors
// are printed and the loop continues.
//
//	Logged out: login, help, exit | quit
//	Logged in:  totals, history <investment|goal> [page], clear, logout,
//	            help, exit | quit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gp %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: totals, history <investment|goal> [page], clear, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "totals", "history", "clear", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			switch cmd {
			case "totals":
				cmdErr = a.Totals(ctx)
			case "history":
				cmdErr = a.History(ctx, args)
			case "clear":
				cmdErr = a.Clear(ctx)
			case "logout":
				cmdErr = a.Logout(ctx)
			}

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
