package main

import "github.com/KaramelBytes/mitelab-cli/cmd"

func main() {
	cmd.Execute()
}
