// Package cli provides the command-line interface of ankicopycard: the
// root command that opens the window, and headless commands for firing a
// single card, inspecting the reviewer's current card and trying out the
// text helpers. Commands are built with cobra.
package cli
