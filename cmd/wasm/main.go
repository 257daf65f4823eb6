//go:build js && wasm
// +build js,wasm

package main

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/chromadna/pkg/chromadna/fingerprint"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidFingerprint
	ErrorTooLong
	ErrorProcessing
)

func errorCode(err error) int {
	switch {
	case errors.Is(err, fingerprint.ErrFormat):
		return ErrorInvalidFingerprint
	case errors.Is(err, fingerprint.ErrLength):
		return ErrorTooLong
	default:
		return ErrorProcessing
	}
}

// chromadnaDecode(fingerprint: string)
// Returns: {error: number, data: {algorithm: number, raw: number[]} | string}
func chromadnaDecode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: fingerprint string")
	}

	fp, err := fingerprint.Decode(args[0].String())
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}

	raw := js.Global().Get("Array").New(len(fp.Raw))
	for i, v := range fp.Raw {
		raw.SetIndex(i, v)
	}

	data := js.Global().Get("Object").New()
	data.Set("algorithm", int(fp.Algorithm))
	data.Set("raw", raw)
	return makeResponse(data)
}

// chromadnaEncode(raw: number[], algorithm?: number)
// Returns: {error: number, data: string}
func chromadnaEncode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: raw array, optional algorithm")
	}

	algorithm := 1
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		algorithm = args[1].Int()
	}
	if algorithm < 0 || algorithm > 255 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("algorithm must be in [0, 255], got: %d", algorithm))
	}

	rawJS := args[0]
	raw := make([]uint32, rawJS.Length())
	for i := range raw {
		val := rawJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("raw element %d is not a number", i))
		}
		f := val.Float()
		if f < 0 || f > 0xFFFFFFFF || f != float64(uint32(f)) {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("raw element %d is not a 32-bit unsigned integer", i))
		}
		raw[i] = uint32(f)
	}

	encoded, err := fingerprint.Encode(raw, uint8(algorithm))
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}
	return makeResponse(encoded)
}

// chromadnaCompare(fingerprint1: string, fingerprint2: string, threshold?: number)
// Returns: {error: number, data: {duration, score, offset} | string}
func chromadnaCompare(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || args[0].Type() != js.TypeString || args[1].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 2 arguments: fingerprint1, fingerprint2")
	}

	threshold := fingerprint.DefaultMatchThreshold
	if len(args) > 2 && args[2].Type() == js.TypeNumber && args[2].Float() > 0 {
		threshold = args[2].Float()
	}

	fp1, err := fingerprint.Decode(args[0].String())
	if err != nil {
		return makeErrorResponse(errorCode(err), "fingerprint1: "+err.Error())
	}
	fp2, err := fingerprint.Decode(args[1].String())
	if err != nil {
		return makeErrorResponse(errorCode(err), "fingerprint2: "+err.Error())
	}

	result, err := fingerprint.Match(threshold, fp1.Raw, fp2.Raw)
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}

	data := js.Global().Get("Object").New()
	data.Set("duration", result.Duration)
	data.Set("score", result.Score)
	data.Set("offset", result.Offset)
	data.Set("segments", len(result.Segments))
	return makeResponse(data)
}

func makeResponse(data interface{}) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 chromadna WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("chromadnaDecode", js.FuncOf(chromadnaDecode))
	js.Global().Set("chromadnaEncode", js.FuncOf(chromadnaEncode))
	js.Global().Set("chromadnaCompare", js.FuncOf(chromadnaCompare))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("warn", "window object is undefined, skipping wasmReady event")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ chromadna WASM module loaded and ready")
	}

	<-done
}
