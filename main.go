package main

import "github.com/heinsupport/hein-assist/cmd"

func main() {
	cmd.Execute()
}
