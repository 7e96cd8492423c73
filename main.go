package main

import (
	"github.com/benfordscope/benfordscope/cmd"
)

func main() {
	cmd.Execute()
}
