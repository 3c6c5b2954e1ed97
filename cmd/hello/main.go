package main

import "github.com/danmuck/nocrt/internal/crt"

func main() {
	crt.Main(func(rt *crt.Runtime) {
		rt.Print("Hello, world!\n")
	})
}
