// Command clinicctl runs operator tasks against the clinic databases: schema migrations
// and demo seed data.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
