// Package main provides the entry point of the academix services.
package main

import (
	"fmt"
	"os"

	"github.com/effective-security/academix/cmd/academix/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
