/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/sitrack/sitrack-gin/cmd"

func main() {
	cmd.Execute()
}
