package main

import "arcula/cmd/arcula-cli/cmd"

func main() {
	cmd.Execute()
}
