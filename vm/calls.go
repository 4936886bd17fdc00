package vm

import "github.com/loxlang/loxvm/object"

// call pushes a new CallFrame for closure, having already validated arity
// and the frame-stack depth.
func (vm *VM) call(closure *object.ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}

	if vm.frameCount == FramesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	vm.frames[vm.frameCount] = newCallFrame(closure, vm.stackTop-argCount-1)
	vm.frameCount++
	return true
}

// callValue dispatches OP_CALL by the callee's kind: a Closure pushes a
// frame, a Native is invoked directly with no frame, anything else is a
// runtime error.
func (vm *VM) callValue(callee object.Value, argCount int) bool {
	if callee.IsObj() {
		switch fn := callee.AsObj().(type) {
		case *object.ObjClosure:
			return vm.call(fn, argCount)
		case *object.ObjNative:
			return vm.callNative(fn, argCount)
		}
	}

	vm.runtimeError("Can only call functions and classes.")
	return false
}

func (vm *VM) callNative(native *object.ObjNative, argCount int) bool {
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}

	vm.stackTop -= argCount + 1
	vm.push(result)
	return true
}
