package main

import "github.com/bryanchriswhite/deskinspect/cmd/deskinspect/commands"

func main() {
	commands.Execute()
}
