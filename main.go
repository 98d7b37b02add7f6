package main

import "github.com/KaramelBytes/datascrub-cli/cmd"

func main() {
	cmd.Execute()
}
