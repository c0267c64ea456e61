package main

import "github.com/turfease/platform/internal/cli"

func main() {
	cli.Execute()
}
