package main

import "CapLedger/internal/cli"

func main() {
	cli.Execute()
}
