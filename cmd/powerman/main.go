package main

import "powerman/internal/cli"

func main() {
	cli.Execute()
}
