package main

import "github.com/MeKo-Tech/perlin2d/internal/cmd"

func main() {
	cmd.Execute()
}
