package main

import "github.com/icco/wavesynth/cmd"

func main() {
	cmd.Execute()
}
