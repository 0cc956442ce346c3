/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/yaseralshikh/usermgr/cmd"

func main() {
	cmd.Execute()
}
