package main

import (
	"os"

	"git.home.luguber.info/inful/focusforge/cmd/focusforge/commands"
)

func main() {
	os.Exit(commands.Main(os.Args[1:], os.Stdout, os.Stderr))
}
