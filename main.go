package main

import "github.com/KaramelBytes/musicdash/cmd"

func main() {
	cmd.Execute()
}
