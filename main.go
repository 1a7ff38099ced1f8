package main

import "github.com/mohitbudhwar0786/earning-website/cmd"

func main() {
	cmd.Execute()
}
