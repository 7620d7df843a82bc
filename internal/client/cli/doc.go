// Package cli provides the interactive ContactKeeper command-line client.
//
// It wires configuration and the HTTP API client into a REPL. Typical flow:
// signup, verify the emailed link, login, then inspect or change the account.
//
// Commands:
//   - signup / verify <token> / resend
//   - login / logout
//   - current / subscription <tier> / avatar <file>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
