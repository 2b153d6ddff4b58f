package main

import (
	"github.com/tus/tusc/cmd/tusc/cli"
)

func main() {
	cli.Run()
}
