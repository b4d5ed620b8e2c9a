package main

import (
	"github.com/octoflow-labs/readme-articles/cmd"
)

func main() {
	cmd.Execute()
}
