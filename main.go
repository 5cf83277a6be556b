package main

import "github.com/derricw/sigbot/cmd"

func main() {
	cmd.Execute()
}
