package main

import "prompterest/cmd/prompterest/command"

func main() {
	command.Execute()
}
