// Package main implements the terminologies CLI tool.
package main

import "github.com/gofhir/terminologies/internal/cli"

func main() {
	cli.Execute()
}
