package main

import "github.com/yorulabs/skills-mcp/cmd"

func main() {
	cmd.Execute()
}
