package main

import "ragcore/cmd"

func main() {
	cmd.Execute()
}
