package main

import "birdcam-pipeline/cmd"

func main() {
	cmd.Execute()
}
