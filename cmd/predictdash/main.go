package main

import (
	"github.com/vietddude/predictdash/internal/cli"
)

func main() {
	cli.Execute()
}
