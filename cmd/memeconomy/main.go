package main

import "memeconomy/internal/cli"

func main() {
	cli.Execute()
}
