package vm

import "fmt"

// runtimeError formats a message, prints it followed by a full stack trace
// (top frame first, one "[line L] in NAME()" per frame — "script" instead
// of "NAME()" for the implicit top-level function), then resets the VM to
// an idle state so the driver may call Interpret again.
func (vm *VM) runtimeError(format string, args ...interface{}) {
	fmt.Fprintf(vm.errOut, format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		// frame.ip already points one past the last fully-decoded
		// instruction byte by the time any error can be raised for that
		// frame (its own instruction if it's the frame that faulted, or the
		// CALL instruction that pushed the next frame otherwise), so ip-1
		// is always the line of the last-executed instruction.
		line := fn.Chunk.Lines[frame.ip-1]
		if fn.Name == nil {
			fmt.Fprintf(vm.errOut, "[line %d] in %s\n", line, fn.DisplayName())
		} else {
			fmt.Fprintf(vm.errOut, "[line %d] in %s()\n", line, fn.DisplayName())
		}
	}

	vm.resetStack()
}
