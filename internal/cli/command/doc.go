// Package command provides CLI command definitions for kvantum-cli.
//
// Commands talk to the server's local management socket; "status" and
// "health" can use the admin HTTP endpoint instead via --admin.
package command
