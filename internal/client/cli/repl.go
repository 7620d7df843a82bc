package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Current(ctx context.Context) error
	ChangeSubscription(ctx context.Context, args []string) error
	UploadAvatar(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the ContactKeeper CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a'. The remaining tokens are passed to commands
// that take an argument. The loop exits on EOF or on "exit"/"quit".
//
//	Not logged in:
//	  - help                 show available commands
//	  - signup               create an account
//	  - verify [token]       confirm the email address
//	  - resend               send the verification email again
//	  - login                authenticate
//	  - exit | quit          leave the program
//
//	Logged in:
//	  - current              show the account
//	  - subscription [tier]  switch to starter, pro or business
//	  - avatar [file]        upload a new avatar image
//	  - logout               end the session
//	  - exit | quit          leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ck%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: current, subscription, avatar, logout, exit")
			} else {
				printlnFn("Available commands: signup, verify, resend, login, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "verify":
			_ = a.Verify(ctx, args)

		case "resend":
			_ = a.Resend(ctx)

		case "login":
			_ = a.Login(ctx)

		case "current", "me":
			_ = a.Current(ctx)

		case "subscription":
			_ = a.ChangeSubscription(ctx, args)

		case "avatar":
			_ = a.UploadAvatar(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
