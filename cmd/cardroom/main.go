package main

import (
	"github.com/cardroomhq/cardroom/internal/cli"
)

func main() {
	cli.Execute()
}
