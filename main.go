package main

import "github.com/leafo/showlights/cmd"

func main() {
	cmd.Execute()
}
