package main

import "github.com/hupe1980/stepchain/internal/cli"

func main() {
	cli.Execute()
}
