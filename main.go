package main

import commands "inputbridge/cmd"

func main() {
	commands.Execute()
}
