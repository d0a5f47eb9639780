// Command blockfs-fsck runs a read-only consistency check over a blockfs
// image and writes the findings to stdout as CSV.
package main

import (
	"fmt"
	"os"

	"github.com/dargueta/blockfs/diag"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s IMAGE\n", os.Args[0])
		os.Exit(2)
	}

	findings, err := diag.Report(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	if werr := diag.WriteCSV(os.Stdout, findings); werr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", werr.Error())
		os.Exit(1)
	}
}
