package main

import "github.com/agentic-research/tagtree/cmd"

func main() {
	cmd.Execute()
}
