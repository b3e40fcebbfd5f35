// ABOUTME: Entry point for the vmic virtual microphone
// ABOUTME: Hands off to the cobra command tree in cmd
package main

import "github.com/vmic-audio/vmic-go/cmd"

func main() {
	cmd.Execute()
}
