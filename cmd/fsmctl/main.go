// Command fsmctl validates, renders and benchmarks trigger-driven state machines.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
