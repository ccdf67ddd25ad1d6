package main

import "github.com/phonginreallife/sentinel/internal/cli"

func main() {
	cli.Execute()
}
