// Command altimpact runs the altimpact scholarly-artifact enrichment
// service: the HTTP intake API, the admission poll loop, and the
// provider-adapter worker pools.
package main

import (
	"fmt"
	"os"

	"altimpact.dev/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
