package main

import "github.com/mselser95/betview/cmd"

func main() {
	cmd.Execute()
}
