// Command acpctl manages an accessory's pairing store interactively.
//
// It operates directly on the store file, so the accessory server should be
// stopped while editing. Beyond pairing management it can replay a protocol
// log file captured by acpd.
//
// Usage:
//
//	acpctl [flags]
//
// Flags:
//
//	-storage string  Pairing store file path (default "acp-state.cbor")
//
// Commands inside the shell:
//
//	list                        Show all pairings
//	add <uuid> <hex-key> <perm> Add or update a pairing (perm: admin|user)
//	remove <uuid>               Remove a pairing
//	count                       Show the number of pairings
//	log <path>                  Print a protocol log file
//	help                        Show command help
//	exit                        Leave the shell
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acp-protocol/acp-go/pkg/pairing"
)

func main() {
	storage := flag.String("storage", "acp-state.cbor", "pairing store file path")
	flag.Parse()

	store, err := pairing.NewFileStore(*storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acpctl: failed to open pairing store: %v\n", err)
		os.Exit(1)
	}

	shell, err := newShell(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acpctl: %v\n", err)
		os.Exit(1)
	}
	shell.run()
}
