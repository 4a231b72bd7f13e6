package main

import (
	"os"

	"github.com/scan-io-git/skims/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
