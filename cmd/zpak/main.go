package main

import "github.com/zpak-io/zpak/cmd/zpak/cmd"

func main() {
	cmd.Execute()
}
