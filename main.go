package main

import "github.com/josephlewis42/gobble/cmd"

func main() {
	cmd.Execute()
}
