package main

import "github.com/flagward/flagward/cmd"

func main() {
	cmd.Execute()
}
