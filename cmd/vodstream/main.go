package main

import (
	"github.com/sincaw/vodstream/cmd/vodstream/cmd"
)

func main() {
	cmd.Execute()
}
