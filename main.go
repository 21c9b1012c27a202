package main

import "github.com/b0bbywan/go-rtkit/cmd"

func main() {
	cmd.Execute()
}
