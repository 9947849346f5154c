// ./main.go
package main

import (
	"github.com/xkilldash9x/randomer/cmd"
)

// main is the entry point for the Randomer CLI.
func main() {
	cmd.Execute()
}
