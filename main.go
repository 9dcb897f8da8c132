package main

import "github.com/marchingbytes/identity-service/cmd"

func main() {
	cmd.Execute()
}
