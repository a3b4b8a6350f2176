package main

import "github.com/naka-gawa/github-census/cmd"

func main() {
	cmd.Execute()
}
