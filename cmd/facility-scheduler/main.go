package main

import "github.com/example/facility-scheduler/cmd"

func main() {
	cmd.Execute()
}
