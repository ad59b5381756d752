// Package commands loads the operator quick-command catalog.
//
// A quick command is a named shortcut that expands into one or more chat
// lines. The catalog lives in a TOML file:
//
//	[[command]]
//	name = "greet"
//	description = "Say hello to everyone nearby"
//	say = ["Hello!", "o/"]
//
//	[[command]]
//	name = "home"
//	say = ["/home"]
//
// Expanded lines go through the normal fleet send path, so they queue
// like any other message when the bot is down.
package commands
