package main

import (
	"os"

	"github.com/Brownie44l1/fashion-api/cmd/fashionctl/cmd"
)

func main() {
	if err := cmd.NewCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
