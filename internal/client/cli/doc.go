// Package cli provides the webkech command-line shell.
//
// It wires configuration, the storage backend and the session store into a
// cobra command tree. Without a subcommand the interactive REPL starts; the
// register, login, logout, whoami and status subcommands run a single
// operation and exit.
//
// Commands that need an account go through the access gate: they report
// "loading" until the stored session has been restored and "not logged in"
// when nobody is signed in.
package cli
