// Package main is the entry point for the layerline CLI.
package main

import "github.com/layerline-io/layerline/internal/cli"

func main() {
	cli.Execute()
}
