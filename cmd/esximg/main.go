package main

import "esximg/cmd/esximg/cmd"

func main() {
	cmd.Execute()
}
