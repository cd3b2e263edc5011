package main

import "GeminiStream/cmd"

func main() {
	cmd.Execute()
}
