// Package compiler walks an ast.Program and emits the bytecode the vm
// package executes, in a single pass with no intermediate tree-walking
// step: one Chunk per function, locals addressed by stack slot, upvalues
// resolved by walking enclosing compilers (see symbol_table.go), and
// globals addressed by an interned-string constant-pool index rather than
// a numbered global slot.
package compiler

import (
	"fmt"

	"github.com/loxlang/loxvm/ast"
	"github.com/loxlang/loxvm/code"
	"github.com/loxlang/loxvm/lexer"
	"github.com/loxlang/loxvm/object"
	"github.com/loxlang/loxvm/parser"
)

// compiler compiles one function body (the top-level script counts as a
// function with no parameters). enclosing is nil for the script compiler;
// every nested function literal gets its own compiler chained to the one
// compiling the function that encloses it, the way the upvalue-resolution
// walk in symbol_table.go expects.
type compiler struct {
	heap      *object.Heap
	fn        *object.ObjFunction
	scope     *scope
	enclosing *compiler
	err       error
}

// Compile compiles source into a top-level function ready for the VM to
// wrap in a closure and call with zero arguments. heap is the allocator
// string and function constants are interned into — the same heap the VM
// that will run the result uses, so compiler-allocated strings are
// visible to vm.heap's intern table.
func Compile(source string, heap *object.Heap) (*object.ObjFunction, error) {
	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse error: %s", errs[0])
	}

	fn := heap.NewFunction(nil)
	c := &compiler{heap: heap, fn: fn, scope: newScope(nil)}

	for _, stmt := range program.Statements {
		c.compileStatement(stmt)
		if c.err != nil {
			return nil, c.err
		}
	}

	// The implicit top-level return has no source statement of its own;
	// line 1 is as good a line as any for a trace that will never name it
	// (the script only ever returns this way when execution falls off the
	// end, never on a runtime error).
	c.emit(1, code.OpNil)
	c.emit(1, code.OpReturn)

	return fn, nil
}

func (c *compiler) chunk() *object.Chunk { return c.fn.Chunk }

func (c *compiler) emit(line int, b code.Opcode, operands ...int) int {
	ins := code.Make(b, operands...)
	pos := len(c.chunk().Code)
	c.chunk().WriteBytes(ins, line)
	return pos
}

func (c *compiler) emitByte(line int, b byte) {
	c.chunk().Write(b, line)
}

// emitJump emits a two-operand-byte jump instruction with a placeholder
// offset and returns the position of the first operand byte, for
// patchJump to backfill once the jump target is known.
func (c *compiler) emitJump(line int, op code.Opcode) int {
	c.chunk().Write(byte(op), line)
	pos := len(c.chunk().Code)
	c.chunk().Write(0xff, line)
	c.chunk().Write(0xff, line)
	return pos
}

// patchJump backfills the two-byte operand at pos with the distance from
// just after that operand to the current end of the chunk.
func (c *compiler) patchJump(pos int) {
	offset := len(c.chunk().Code) - (pos + 2)
	if offset > 0xffff {
		c.errorf("jump target too far away")
		return
	}
	c.chunk().Code[pos] = byte(offset >> 8)
	c.chunk().Code[pos+1] = byte(offset)
}

// emitLoop emits OP_LOOP with the backward offset to loopStart.
func (c *compiler) emitLoop(line int, loopStart int) {
	c.chunk().Write(byte(code.OpLoop), line)
	offset := len(c.chunk().Code) + 2 - loopStart
	if offset > 0xffff {
		c.errorf("loop body too large")
		return
	}
	c.chunk().Write(byte(offset>>8), line)
	c.chunk().Write(byte(offset), line)
}

func (c *compiler) errorf(format string, args ...interface{}) {
	if c.err == nil {
		c.err = fmt.Errorf(format, args...)
	}
}

// nameConstant interns name and returns its constant-pool index, for the
// GET_GLOBAL/DEFINE_GLOBAL/SET_GLOBAL opcodes that address globals by
// interned-string constant index.
func (c *compiler) nameConstant(name string) int {
	return c.chunk().AddConstant(object.FromObj(c.heap.CopyString([]byte(name))))
}

func (c *compiler) compileStatement(stmt ast.Statement) {
	if c.err != nil {
		return
	}

	switch node := stmt.(type) {
	case *ast.VarStatement:
		c.compileVarStatement(node)

	case *ast.ExpressionStatement:
		c.compileExpression(node.Expression)
		c.emit(node.Token.Line, code.OpPop)

	case *ast.PrintStatement:
		c.compileExpression(node.Value)
		c.emit(node.Token.Line, code.OpPrint)

	case *ast.BlockStatement:
		c.scope.beginBlock()
		for _, s := range node.Statements {
			c.compileStatement(s)
		}
		c.endBlock(node.Token.Line)

	case *ast.IfStatement:
		c.compileIfStatement(node)

	case *ast.WhileStatement:
		c.compileWhileStatement(node)

	case *ast.ForStatement:
		c.compileForStatement(node)

	case *ast.FunctionStatement:
		c.compileFunctionStatement(node)

	case *ast.ReturnStatement:
		if node.Value == nil {
			c.emit(node.Token.Line, code.OpNil)
		} else {
			c.compileExpression(node.Value)
		}
		c.emit(node.Token.Line, code.OpReturn)

	default:
		c.errorf("compiler: unhandled statement type %T", stmt)
	}
}

// endBlock closes over-captured locals and pops the rest as the block's
// scope is discarded, one instruction per slot — clox's design, and the
// reason OP_CLOSE_UPVALUE exists as a distinct opcode from OP_POP: the
// two differ in whether the popped slot's value must first be copied into
// a heap-resident upvalue.
func (c *compiler) endBlock(ln int) {
	popped := c.scope.endBlock()
	for _, loc := range popped {
		if loc.captured {
			c.emit(ln, code.OpCloseUpvalue)
		} else {
			c.emit(ln, code.OpPop)
		}
	}
}

func (c *compiler) compileVarStatement(node *ast.VarStatement) {
	if node.Initializer != nil {
		c.compileExpression(node.Initializer)
	} else {
		c.emit(node.Token.Line, code.OpNil)
	}

	if c.scope.depth == 0 {
		idx := c.nameConstant(node.Name.Value)
		c.emit(node.Token.Line, code.OpDefineGlobal, idx)
		return
	}

	c.scope.declareLocal(node.Name.Value)
}

func (c *compiler) compileIfStatement(node *ast.IfStatement) {
	c.compileExpression(node.Condition)

	thenJump := c.emitJump(node.Token.Line, code.OpJumpIfFalse)
	c.emit(node.Token.Line, code.OpPop)
	c.compileStatement(node.Then)

	elseJump := c.emitJump(node.Token.Line, code.OpJump)
	c.patchJump(thenJump)
	c.emit(node.Token.Line, code.OpPop)

	if node.Else != nil {
		c.compileStatement(node.Else)
	}
	c.patchJump(elseJump)
}

func (c *compiler) compileWhileStatement(node *ast.WhileStatement) {
	loopStart := len(c.chunk().Code)
	c.compileExpression(node.Condition)

	exitJump := c.emitJump(node.Token.Line, code.OpJumpIfFalse)
	c.emit(node.Token.Line, code.OpPop)
	c.compileStatement(node.Body)
	c.emitLoop(node.Token.Line, loopStart)

	c.patchJump(exitJump)
	c.emit(node.Token.Line, code.OpPop)
}

// compileForStatement desugars `for (init; cond; incr) body` into the
// equivalent block-wrapped while loop rather than giving the compiler a
// second looping code path: { init; while (cond) { body; incr; } }.
func (c *compiler) compileForStatement(node *ast.ForStatement) {
	c.scope.beginBlock()

	if node.Initializer != nil {
		c.compileStatement(node.Initializer)
	}

	loopStart := len(c.chunk().Code)

	var exitJump int
	hasCondition := node.Condition != nil
	if hasCondition {
		c.compileExpression(node.Condition)
		exitJump = c.emitJump(node.Token.Line, code.OpJumpIfFalse)
		c.emit(node.Token.Line, code.OpPop)
	}

	c.compileStatement(node.Body)

	if node.Increment != nil {
		c.compileExpression(node.Increment)
		c.emit(node.Token.Line, code.OpPop)
	}

	c.emitLoop(node.Token.Line, loopStart)

	if hasCondition {
		c.patchJump(exitJump)
		c.emit(node.Token.Line, code.OpPop)
	}

	c.endBlock(node.Token.Line)
}

func (c *compiler) compileFunctionStatement(node *ast.FunctionStatement) {
	if c.scope.depth == 0 {
		idx := c.nameConstant(node.Name.Value)
		c.compileFunctionLiteral(node.Name.Value, node.Parameters, node.Body, node.Token.Line)
		c.emit(node.Token.Line, code.OpDefineGlobal, idx)
		return
	}

	// The closure OP_CLOSURE pushes stays on the stack as the local's slot.
	c.scope.declareLocal(node.Name.Value)
	c.compileFunctionLiteral(node.Name.Value, node.Parameters, node.Body, node.Token.Line)
}

func (c *compiler) compileExpression(expr ast.Expression) {
	if c.err != nil {
		return
	}

	switch node := expr.(type) {
	case *ast.NumberLiteral:
		idx := c.chunk().AddConstant(object.Number(node.Value))
		c.emit(node.Token.Line, code.OpConstant, idx)

	case *ast.StringLiteral:
		idx := c.chunk().AddConstant(object.FromObj(c.heap.CopyString([]byte(node.Value))))
		c.emit(node.Token.Line, code.OpConstant, idx)

	case *ast.BooleanLiteral:
		if node.Value {
			c.emit(node.Token.Line, code.OpTrue)
		} else {
			c.emit(node.Token.Line, code.OpFalse)
		}

	case *ast.NilLiteral:
		c.emit(node.Token.Line, code.OpNil)

	case *ast.Identifier:
		c.compileIdentifier(node)

	case *ast.AssignExpression:
		c.compileAssignExpression(node)

	case *ast.UnaryExpression:
		c.compileExpression(node.Right)
		switch node.Operator {
		case "-":
			c.emit(node.Token.Line, code.OpNegate)
		case "!":
			c.emit(node.Token.Line, code.OpNot)
		default:
			c.errorf("compiler: unknown unary operator %q", node.Operator)
		}

	case *ast.BinaryExpression:
		c.compileBinaryExpression(node)

	case *ast.LogicalExpression:
		c.compileLogicalExpression(node)

	case *ast.CallExpression:
		c.compileExpression(node.Callee)
		for _, arg := range node.Arguments {
			c.compileExpression(arg)
		}
		c.emit(node.Token.Line, code.OpCall, len(node.Arguments))

	case *ast.FunctionLiteral:
		c.compileFunctionLiteral(node.Name, node.Parameters, node.Body, node.Token.Line)

	default:
		c.errorf("compiler: unhandled expression type %T", expr)
	}
}

func (c *compiler) compileIdentifier(node *ast.Identifier) {
	if slot, ok := c.scope.resolveLocal(node.Value); ok {
		c.emit(node.Token.Line, code.OpGetLocal, slot)
		return
	}
	if slot, ok := c.scope.resolveUpvalue(node.Value); ok {
		c.emit(node.Token.Line, code.OpGetUpvalue, slot)
		return
	}
	idx := c.nameConstant(node.Value)
	c.emit(node.Token.Line, code.OpGetGlobal, idx)
}

func (c *compiler) compileAssignExpression(node *ast.AssignExpression) {
	c.compileExpression(node.Value)

	if slot, ok := c.scope.resolveLocal(node.Name.Value); ok {
		c.emit(node.Token.Line, code.OpSetLocal, slot)
		return
	}
	if slot, ok := c.scope.resolveUpvalue(node.Name.Value); ok {
		c.emit(node.Token.Line, code.OpSetUpvalue, slot)
		return
	}
	idx := c.nameConstant(node.Name.Value)
	c.emit(node.Token.Line, code.OpSetGlobal, idx)
}

func (c *compiler) compileBinaryExpression(node *ast.BinaryExpression) {
	c.compileExpression(node.Left)
	c.compileExpression(node.Right)

	switch node.Operator {
	case "+":
		c.emit(node.Token.Line, code.OpAdd)
	case "-":
		c.emit(node.Token.Line, code.OpSubtract)
	case "*":
		c.emit(node.Token.Line, code.OpMultiply)
	case "/":
		c.emit(node.Token.Line, code.OpDivide)
	case "==":
		c.emit(node.Token.Line, code.OpEqual)
	case "!=":
		c.emit(node.Token.Line, code.OpEqual)
		c.emit(node.Token.Line, code.OpNot)
	case "<":
		c.emit(node.Token.Line, code.OpLess)
	case "<=":
		c.emit(node.Token.Line, code.OpGreater)
		c.emit(node.Token.Line, code.OpNot)
	case ">":
		c.emit(node.Token.Line, code.OpGreater)
	case ">=":
		c.emit(node.Token.Line, code.OpLess)
		c.emit(node.Token.Line, code.OpNot)
	default:
		c.errorf("compiler: unknown binary operator %q", node.Operator)
	}
}

// compileLogicalExpression short-circuits: `and` skips the right operand
// when the left is already falsey, `or` skips it when the left is already
// truthy, in both cases leaving the decisive operand's value on the stack.
func (c *compiler) compileLogicalExpression(node *ast.LogicalExpression) {
	c.compileExpression(node.Left)

	if node.Operator == "and" {
		endJump := c.emitJump(node.Token.Line, code.OpJumpIfFalse)
		c.emit(node.Token.Line, code.OpPop)
		c.compileExpression(node.Right)
		c.patchJump(endJump)
		return
	}

	elseJump := c.emitJump(node.Token.Line, code.OpJumpIfFalse)
	endJump := c.emitJump(node.Token.Line, code.OpJump)
	c.patchJump(elseJump)
	c.emit(node.Token.Line, code.OpPop)
	c.compileExpression(node.Right)
	c.patchJump(endJump)
}

// compileFunctionLiteral compiles params/body into a fresh *object.ObjFunction
// constant in the enclosing chunk and emits OP_CLOSURE for it, followed by
// the isLocal/index byte pairs OP_CLOSURE's handler reads to populate the
// closure's upvalues.
func (c *compiler) compileFunctionLiteral(name string, params []*ast.Identifier, body *ast.BlockStatement, ln int) {
	var fnName *object.ObjString
	if name != "" {
		fnName = c.heap.CopyString([]byte(name))
	}
	fn := c.heap.NewFunction(fnName)
	fn.Arity = len(params)

	inner := &compiler{heap: c.heap, fn: fn, scope: newScope(c.scope), enclosing: c}
	// A function body is a local scope: its parameters and top-level
	// declarations are stack slots, not globals.
	inner.scope.beginBlock()

	for _, p := range params {
		inner.scope.declareLocal(p.Value)
	}
	for _, s := range body.Statements {
		inner.compileStatement(s)
	}
	if inner.err != nil {
		c.err = inner.err
		return
	}
	inner.emit(ln, code.OpNil)
	inner.emit(ln, code.OpReturn)

	fn.UpvalueCount = len(inner.scope.upvalues)

	idx := c.chunk().AddConstant(object.FromObj(fn))
	c.emit(ln, code.OpClosure, idx)
	for _, uv := range inner.scope.upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(ln, isLocal)
		c.emitByte(ln, byte(uv.index))
	}
}

