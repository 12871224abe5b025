package main

import (
	"fmt"
	"os"

	"github.com/example/llmtxt/internal/cli"
	"github.com/example/llmtxt/internal/wire"
)

func main() {
	err := cli.NewRootCmd().Execute()
	if cerr := wire.Shutdown(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
