package main

import "github.com/yoockh/voicedit/internal/cli"

func main() {
	cli.Execute()
}
