package main

import "github.com/shorelinehq/shoreline/internal/cli"

func main() {
	cli.Execute()
}
