package main

import "github.com/WagnerMushayija/momo-summative/internal/cli"

func main() {
	cli.Execute()
}
