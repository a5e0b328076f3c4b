package main

import "github.com/bnema/gw2ctl/cmd"

func main() {
	cmd.Execute()
}
