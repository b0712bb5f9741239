package main

import "github.com/fkloosterman/relations-obsidian-sub000/cmd"

func main() {
	cmd.Execute()
}
