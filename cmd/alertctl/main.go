package main

import "agrimarket/cmd/alertctl/command"

func main() {
	command.Execute()
}
