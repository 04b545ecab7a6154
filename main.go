package main

import "github.com/Loyalty-lt/sdk-go/cmd"

func main() {
	cmd.Execute()
}
