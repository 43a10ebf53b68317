// Package status assembles the server status report shared by the admin
// HTTP endpoint, the local management socket and kvantum-cli.
package status
