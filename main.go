package main

import "github.com/cadencehq/audit-engine/cmd"

func main() {
	cmd.Execute()
}
