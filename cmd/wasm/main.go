//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/session"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.Options{})

	splineEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	splineEngine.Set("exec", js.FuncOf(exec))
	splineEngine.Set("loadScene", js.FuncOf(loadScene))
	splineEngine.Set("encodeScene", js.FuncOf(encodeScene))

	// --- Queries (frontend ← engine) ---
	splineEngine.Set("render", js.FuncOf(render))
	splineEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	splineEngine.Set("getScene", js.FuncOf(getScene))
	splineEngine.Set("getSelection", js.FuncOf(getSelection))
	splineEngine.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	splineEngine.Set("getHistoryState", js.FuncOf(getHistoryState))
	splineEngine.Set("getFrame", js.FuncOf(getFrame))

	js.Global().Set("splineEngine", splineEngine)
	js.Global().Set("splineWasmReady", js.ValueOf(true))

	select {}
}

func errorResult(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

// exec runs an editor command: exec(op, argsJSON?). The result is returned
// as JSON under "result".
func exec(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing op")
	}
	var raw json.RawMessage
	if len(args) > 1 && args[1].Type() == js.TypeString {
		raw = json.RawMessage(args[1].String())
	}

	result, err := session.Exec(eng, args[0].String(), raw)
	if err != nil {
		return errorResult(err.Error())
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(map[string]any{"ok": true, "result": string(data)})
}

func loadScene(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing scene JSON")
	}
	if err := eng.LoadSceneJSON([]byte(args[0].String())); err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(map[string]any{"ok": true})
}

func encodeScene(this js.Value, args []js.Value) any {
	data, err := eng.EncodeScene()
	if err != nil {
		return errorResult(err.Error())
	}
	return js.ValueOf(string(data))
}

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Render())
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getScene(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetScene())
}

func getSelection(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetSelection())
}

func getPlaybackState(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetPlaybackState())
}

func getHistoryState(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.GetHistoryState())
}

func getFrame(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Frame())
}
