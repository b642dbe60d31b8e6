package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()

	if err != nil {
		// Controller failures have already been printed by the renderer
		if !errors.Is(err, errShown) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
