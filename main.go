package main

import "github.com/RyanBlaney/voice-match/cmd"

func main() {
	cmd.Execute()
}
