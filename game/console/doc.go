// Package console drives a game from a line based terminal, one command per line.
// It backs the play command and is what a scripted session pipes into.
package console
