package main

import "github.com/techg-platform/techg-client/internal/cli"

func main() {
	cli.Execute()
}
