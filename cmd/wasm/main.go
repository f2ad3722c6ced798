//go:build js && wasm

package main

import (
	"fmt"
	"math"
	"syscall/js"

	"github.com/MeKo-Tech/perlin2d/internal/noise"
)

var shared = noise.NewShared(noise.NewTable())

// evaluate is called as perlinEvaluate(x, y) and returns the noise value at
// grid coordinates (x, y) under the current table.
func evaluate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "usage: perlinEvaluate(x, y)"}
	}
	x, y := args[0].Float(), args[1].Float()
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return map[string]interface{}{"error": "coordinates must be finite"}
	}
	return shared.Evaluate(x, y)
}

// initNoise is called as perlinInit(seed?). A missing or malformed seed
// selects the canonical table.
func initNoise(this js.Value, args []js.Value) interface{} {
	seed, ok := int64(0), false
	if len(args) > 0 && args[0].Type() != js.TypeUndefined && args[0].Type() != js.TypeNull {
		var s string
		if args[0].Type() == js.TypeNumber {
			s = fmt.Sprintf("%.0f", args[0].Float())
		} else {
			s = args[0].String()
		}
		seed, ok = noise.ParseSeed(s)
	}
	if ok {
		shared.Reseed(seed)
	} else {
		shared.Reset()
	}
	return map[string]interface{}{"status": "ready", "seed": shared.Label()}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("perlinEvaluate", js.FuncOf(evaluate))
	js.Global().Set("perlinInit", js.FuncOf(initNoise))

	fmt.Println("perlin2d WASM module loaded")
	<-c
}
