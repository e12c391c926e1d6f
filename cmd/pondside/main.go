package main

import "github.com/pondside/pondside/internal/cli"

func main() {
	cli.Execute()
}
