package main

import (
	"github.com/bindicator/bindicator/cmd"
)

func main() {
	cmd.Execute()
}
