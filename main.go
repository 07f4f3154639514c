package main

import "github.com/WENLIXIAO-CS/tmux-mcp/cmd"

func main() {
	cmd.Execute()
}
