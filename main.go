package main

import "github.com/kamusis/byht/cmd"

func main() {
	cmd.Execute()
}
