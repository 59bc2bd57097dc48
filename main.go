package main

import (
	"github.com/mittwald/mittcheck/cmd"
)

func main() {
	cmd.Execute()
}
