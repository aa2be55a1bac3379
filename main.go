package main

import (
	"mpdfm/cmd"
)

func main() {
	cmd.Execute()
}
