package main

import (
	"os"

	"github.com/seekforge/groundchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
