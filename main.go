package main

import "github.com/tickerbench/tickerbench/internal/cli"

func main() {
	cli.Execute()
}
