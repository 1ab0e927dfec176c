package main

import (
	"fmt"
	"os"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "savectl: %v\n", err)
		os.Exit(1)
	}
}
