package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/solatis/checkpoint/cmd/checkpoint/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, cmd.ErrRecordInvalid) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
