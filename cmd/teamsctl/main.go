package main

import "github.com/waikato-ufdl/simple-teams/cmd/teamsctl/cmd"

func main() {
	cmd.Execute()
}
