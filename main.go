package main

import (
	"github.com/packwiz/mrpack-utils/cmd"
)

func main() {
	cmd.Execute()
}
