package main

import "github.com/tanq16/coursekeep/cmd"

func main() {
	cmd.Execute()
}
