package main

import "stacli/cmd"

func main() {
	cmd.Execute()
}
