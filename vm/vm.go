// Package vm implements the execution engine: the operand stack, the
// call-frame machine, the upvalue engine, and the opcode dispatch loop.
//
// Pipeline:
//
//	source -> lexer -> parser -> ast -> compiler -> bytecode (Chunk) -> VM
//
// The VM is a stack machine. Every instruction pops its operands off a
// shared operand stack and pushes its result back on; function calls push a
// CallFrame that gives the callee a private window (its "slots") onto that
// same stack rather than a separate one. Values that outlive the frame that
// produced them — a local captured by a closure — are lifted onto the heap
// through the upvalue engine (see upvalue.go) instead of copied, so that
// assignments through the closure and through the enclosing scope stay
// visible to each other for as long as both exist.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/loxlang/loxvm/code"
	"github.com/loxlang/loxvm/compiler"
	"github.com/loxlang/loxvm/object"
)

// FramesMax bounds call-stack depth.
const FramesMax = 64

// StackSlotsPerFrame, multiplied by FramesMax, bounds the operand stack
// Because the bound is fixed, the stack never reallocates,
// so a slot's address (here, its index) is stable for as long as any
// upvalue might reference it — see the design note in object.ObjUpvalue.
const StackSlotsPerFrame = 256

// StackMax is the operand stack's fixed capacity.
const StackMax = FramesMax * StackSlotsPerFrame

// InterpretResult is the status interpret(source) reports to the driver.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

func (r InterpretResult) String() string {
	switch r {
	case InterpretOK:
		return "OK"
	case InterpretCompileError:
		return "COMPILE_ERROR"
	case InterpretRuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// VM is the process's execution state: the operand stack, the frame stack,
// globals, the open-upvalue list, and the heap every object is allocated
// from. There is no package-level singleton — every operation hangs off an
// explicit *VM — so more than one can coexist in a process if a caller wants
// that. Each individual VM is still single-threaded: no VM may be driven
// from more than one goroutine concurrently.
type VM struct {
	heap *object.Heap

	stack    [StackMax]object.Value
	stackTop int

	frames     [FramesMax]CallFrame
	frameCount int

	globals map[string]object.Value

	openUpvalues *object.ObjUpvalue

	out    io.Writer
	errOut io.Writer

	clock func() float64
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects PRINT output; the default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithErrorOutput redirects runtime-error and stack-trace output; the
// default is os.Stderr.
func WithErrorOutput(w io.Writer) Option {
	return func(vm *VM) { vm.errOut = w }
}

// WithClock overrides the clock() native's time source, used by tests that
// need deterministic output.
func WithClock(fn func() float64) Option {
	return func(vm *VM) { vm.clock = fn }
}

// New creates an idle VM: empty stacks, a fresh heap, and the mandatory
// native bindings installed in globals.
func New(opts ...Option) *VM {
	vm := &VM{
		heap:    object.NewHeap(),
		globals: make(map[string]object.Value),
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.defineNatives()
	return vm
}

// Heap exposes the VM's allocator, for the compiler to allocate function and
// string constants into the same object population the VM itself uses.
func (vm *VM) Heap() *object.Heap { return vm.heap }

// Interpret compiles source and, on success, runs it to completion. It
// implements the driver contract: interpret(source) -> {OK, COMPILE_ERROR,
// RUNTIME_ERROR}.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, err := compiler.Compile(source, vm.heap)
	if err != nil {
		fmt.Fprintln(vm.errOut, err)
		return InterpretCompileError
	}

	closure := vm.heap.NewClosure(fn)
	vm.push(object.FromObj(closure))
	vm.callValue(object.FromObj(closure), 0)

	return vm.run()
}

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

func (vm *VM) push(v object.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() object.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) object.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// run is the dispatch loop: decode one opcode from the current frame,
// execute it, repeat. Errors return immediately with InterpretRuntimeError
// after runtimeError has printed the trace and reset the stacks.
func (vm *VM) run() InterpretResult {
	for {
		frame := vm.currentFrame()
		ins := frame.instructions()
		ip := frame.ip
		frame.ip++
		op := code.Opcode(ins[ip])

		switch op {
		case code.OpConstant:
			index := ins[frame.ip]
			frame.ip++
			vm.push(frame.closure.Function.Chunk.Constants[index])

		case code.OpNil:
			vm.push(object.Nil)
		case code.OpTrue:
			vm.push(object.True)
		case code.OpFalse:
			vm.push(object.False)

		case code.OpPop:
			vm.pop()

		case code.OpGetLocal:
			slot := int(ins[frame.ip])
			frame.ip++
			vm.push(vm.stack[frame.slots+slot])

		case code.OpSetLocal:
			slot := int(ins[frame.ip])
			frame.ip++
			vm.stack[frame.slots+slot] = vm.peek(0)

		case code.OpGetGlobal:
			name := frame.closure.Function.Chunk.Constants[ins[frame.ip]].AsString()
			frame.ip++
			value, ok := vm.globals[name]
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name)
				return InterpretRuntimeError
			}
			vm.push(value)

		case code.OpDefineGlobal:
			name := frame.closure.Function.Chunk.Constants[ins[frame.ip]].AsString()
			frame.ip++
			vm.globals[name] = vm.peek(0)
			vm.pop()

		case code.OpSetGlobal:
			name := frame.closure.Function.Chunk.Constants[ins[frame.ip]].AsString()
			frame.ip++
			if _, ok := vm.globals[name]; !ok {
				vm.runtimeError("Undefined variable '%s'.", name)
				return InterpretRuntimeError
			}
			vm.globals[name] = vm.peek(0)

		case code.OpGetUpvalue:
			slot := int(ins[frame.ip])
			frame.ip++
			vm.push(vm.readUpvalue(frame.closure.Upvalues[slot]))

		case code.OpSetUpvalue:
			slot := int(ins[frame.ip])
			frame.ip++
			vm.writeUpvalue(frame.closure.Upvalues[slot], vm.peek(0))

		case code.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(object.Bool(object.Equal(a, b)))

		case code.OpGreater, code.OpLess:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				vm.runtimeError("Operands must be numbers.")
				return InterpretRuntimeError
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			if op == code.OpGreater {
				vm.push(object.Bool(a > b))
			} else {
				vm.push(object.Bool(a < b))
			}

		case code.OpAdd:
			if vm.peek(0).IsString() && vm.peek(1).IsString() {
				b := vm.pop().AsString()
				a := vm.pop().AsString()
				vm.push(object.FromObj(vm.heap.CopyString([]byte(a + b))))
			} else if vm.peek(0).IsNumber() && vm.peek(1).IsNumber() {
				b := vm.pop().AsNumber()
				a := vm.pop().AsNumber()
				vm.push(object.Number(a + b))
			} else {
				vm.runtimeError("Operands must be two numbers or two strings.")
				return InterpretRuntimeError
			}

		case code.OpSubtract, code.OpMultiply, code.OpDivide:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				vm.runtimeError("Operands must be numbers.")
				return InterpretRuntimeError
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			switch op {
			case code.OpSubtract:
				vm.push(object.Number(a - b))
			case code.OpMultiply:
				vm.push(object.Number(a * b))
			case code.OpDivide:
				// IEEE division: a/0 yields +-Inf or NaN, never a trap.
				vm.push(object.Number(a / b))
			}

		case code.OpNot:
			vm.push(object.Bool(!object.IsTruthy(vm.pop())))

		case code.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.push(object.Number(-vm.pop().AsNumber()))

		case code.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case code.OpJump:
			offset := int(code.ReadUint16(ins[frame.ip:]))
			frame.ip += 2
			frame.ip += offset

		case code.OpJumpIfFalse:
			offset := int(code.ReadUint16(ins[frame.ip:]))
			frame.ip += 2
			if !object.IsTruthy(vm.peek(0)) {
				frame.ip += offset
			}

		case code.OpLoop:
			offset := int(code.ReadUint16(ins[frame.ip:]))
			frame.ip += 2
			frame.ip -= offset

		case code.OpCall:
			argCount := int(ins[frame.ip])
			frame.ip++
			if !vm.callValue(vm.peek(argCount), argCount) {
				return InterpretRuntimeError
			}

		case code.OpClosure:
			fnValue := frame.closure.Function.Chunk.Constants[ins[frame.ip]]
			frame.ip++
			fn := fnValue.AsObj().(*object.ObjFunction)

			closure := vm.heap.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := ins[frame.ip]
				frame.ip++
				index := int(ins[frame.ip])
				frame.ip++
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(object.FromObj(closure))

		case code.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case code.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = frame.slots
			vm.push(result)

		default:
			vm.runtimeError("Unknown opcode %d.", op)
			return InterpretRuntimeError
		}
	}
}
