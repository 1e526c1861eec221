package main

import "github.com/vibast-solutions/ms-go-paybot/cmd"

func main() {
	cmd.Execute()
}
