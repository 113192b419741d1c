package main

import "github.com/olehkaliuzhnyi/ethwallet/cmd/ethwallet/cmd"

func main() {
	cmd.Execute()
}
