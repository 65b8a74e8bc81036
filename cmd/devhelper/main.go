// Package main is the entry point for devhelper.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal; all commands live in internal/cli:
//
//	devhelper serve [--migrate=false]
//	devhelper user add --username alice --password secret
//	devhelper version
//
// WHY cmd/devhelper/?
// The cmd/ directory is a Go convention for executable entry points.
// Each executable gets its own directory with its own main.go.
package main

import "github.com/sakif/devhelper/internal/cli"

func main() {
	cli.Execute()
}
