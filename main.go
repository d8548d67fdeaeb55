package main

import "github.com/papapumpkin/refinery/cmd"

func main() {
	cmd.Execute()
}
