package main

import "github.com/alex77palex/arbitrage-bot/cmd"

func main() {
	cmd.Execute()
}
