package main

import "case-board.com/case-board/cmd"

func main() {
	cmd.Execute()
}
