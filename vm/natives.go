package vm

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/loxlang/loxvm/object"
)

// defineNative registers a host-provided callable under name: push the
// name, push the Native object, then install the pair into globals. The
// push/pop keeps both values reachable from the operand stack for the
// duration of the table insertion, so a tracing collector running mid-call
// would still find them as roots.
func (vm *VM) defineNative(name string, fn object.NativeFn) {
	vm.push(object.FromObj(vm.heap.CopyString([]byte(name))))
	vm.push(object.FromObj(vm.heap.NewNative(name, fn)))

	vm.globals[vm.stack[vm.stackTop-2].AsString()] = vm.stack[vm.stackTop-1]

	vm.pop()
	vm.pop()
}

// defineNatives installs every native this VM ships with: clock() for
// wall-clock time and _match() for regular-expression matching.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.nativeClock)
	vm.defineNative("_match", nativeMatch)
}

func (vm *VM) nativeClock(args []object.Value) (object.Value, error) {
	if len(args) != 0 {
		return object.Nil, fmt.Errorf("clock() takes no arguments")
	}
	now := vm.clock
	if now == nil {
		now = defaultClock
	}
	return object.Number(now()), nil
}

func defaultClock() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// nativeMatch reports whether subject matches the .NET-flavored regular
// expression pattern. It uses dlclark/regexp2 rather than the standard
// library's regexp so patterns can use backreferences and lookaround that
// Go's RE2-based engine refuses to compile.
func nativeMatch(args []object.Value) (object.Value, error) {
	if len(args) != 2 {
		return object.Nil, fmt.Errorf("_match() expects 2 arguments, pattern and subject")
	}
	if !args[0].IsString() || !args[1].IsString() {
		return object.Nil, fmt.Errorf("_match() expects two strings")
	}

	re, err := regexp2.Compile(args[0].AsString(), regexp2.None)
	if err != nil {
		return object.Nil, fmt.Errorf("invalid pattern: %w", err)
	}

	matched, err := re.MatchString(args[1].AsString())
	if err != nil {
		return object.Nil, err
	}
	return object.Bool(matched), nil
}
