package main

import "marker-sync/cmd"

func main() {
	cmd.Execute()
}
