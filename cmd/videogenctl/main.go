package main

import "github.com/lzhlsy00/video-gen/internal/cli"

func main() {
	cli.Execute()
}
