package main

import "github.com/vibast-solutions/ms-go-users/cmd"

func main() {
	cmd.Execute()
}
