package compiler

import (
	"fmt"
	"testing"

	"github.com/loxlang/loxvm/code"
	"github.com/loxlang/loxvm/object"
)

type compilerTestCase struct {
	input                string
	expectedConstants    []interface{}
	expectedInstructions []code.Instructions
}

func TestNumberArithmetic(t *testing.T) {
	tests := []compilerTestCase{
		{
			input:             "1 + 2;",
			expectedConstants: []interface{}{1.0, 2.0},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpConstant, 1),
				code.Make(code.OpAdd),
				code.Make(code.OpPop),
			},
		},
		{
			input:             "1 < 2;",
			expectedConstants: []interface{}{1.0, 2.0},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpConstant, 1),
				code.Make(code.OpLess),
				code.Make(code.OpPop),
			},
		},
		{
			input:             "1 >= 2;",
			expectedConstants: []interface{}{1.0, 2.0},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpConstant, 1),
				code.Make(code.OpLess),
				code.Make(code.OpNot),
				code.Make(code.OpPop),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestGlobalVarStatement(t *testing.T) {
	tests := []compilerTestCase{
		{
			input:             "var a = 1;",
			expectedConstants: []interface{}{1.0, "a"},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpDefineGlobal, 1),
			},
		},
		{
			input:             "var a = 1; a = 2;",
			expectedConstants: []interface{}{1.0, "a", 2.0, "a"},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpDefineGlobal, 1),
				code.Make(code.OpConstant, 2),
				code.Make(code.OpSetGlobal, 3),
				code.Make(code.OpPop),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestLocalVarStatement(t *testing.T) {
	tests := []compilerTestCase{
		{
			input:             "{ var a = 1; print a; }",
			expectedConstants: []interface{}{1.0},
			expectedInstructions: []code.Instructions{
				code.Make(code.OpConstant, 0),
				code.Make(code.OpGetLocal, 1),
				code.Make(code.OpPrint),
				code.Make(code.OpPop),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestIfStatementJumps(t *testing.T) {
	input := `if (true) { print 1; } else { print 2; }`
	fn := compileProgram(t, input)

	wantLen := len(concatInstructions([]code.Instructions{
		code.Make(code.OpTrue),
		code.Make(code.OpJumpIfFalse, 7),
		code.Make(code.OpPop),
		code.Make(code.OpConstant, 0),
		code.Make(code.OpPrint),
		code.Make(code.OpJump, 4),
		code.Make(code.OpPop),
		code.Make(code.OpConstant, 1),
		code.Make(code.OpPrint),
		code.Make(code.OpNil),
		code.Make(code.OpReturn),
	}))
	if len(fn.Chunk.Code) != wantLen {
		t.Fatalf("bytecode length = %d, want %d\n%s", len(fn.Chunk.Code), wantLen, fn.Chunk.Disassemble("if"))
	}
}

func TestWhileLoopsBackward(t *testing.T) {
	input := `while (true) { print 1; }`
	fn := compileProgram(t, input)

	found := false
	for _, b := range fn.Chunk.Code {
		if code.Opcode(b) == code.OpLoop {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected OP_LOOP in compiled while body:\n%s", fn.Chunk.Disassemble("while"))
	}
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	input := `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}`
	topFn := compileProgram(t, input)

	var outerFn, innerFn *object.ObjFunction
	for _, v := range topFn.Chunk.Constants {
		if fn, ok := v.AsObj().(*object.ObjFunction); ok {
			outerFn = fn
		}
	}
	if outerFn == nil {
		t.Fatalf("did not find makeCounter() among top-level constants")
	}
	for _, v := range outerFn.Chunk.Constants {
		if fn, ok := v.AsObj().(*object.ObjFunction); ok {
			innerFn = fn
		}
	}
	if innerFn == nil {
		t.Fatalf("did not find increment() among makeCounter's constants")
	}
	if innerFn.UpvalueCount != 1 {
		t.Fatalf("increment() UpvalueCount = %d, want 1", innerFn.UpvalueCount)
	}
}

func compileProgram(t *testing.T, input string) *object.ObjFunction {
	t.Helper()
	fn, err := Compile(input, object.NewHeap())
	if err != nil {
		t.Fatalf("Compile error: %s", err)
	}
	return fn
}

func runCompilerTests(t *testing.T, tests []compilerTestCase) {
	t.Helper()

	for _, tt := range tests {
		fn := compileProgram(t, tt.input)

		if err := testInstructions(tt.expectedInstructions, code.Instructions(fn.Chunk.Code)); err != nil {
			t.Fatalf("input %q: testInstructions failed: %s\n%s", tt.input, err, fn.Chunk.Disassemble("test"))
		}
		if err := testConstants(tt.expectedConstants, fn.Chunk.Constants); err != nil {
			t.Fatalf("input %q: testConstants failed: %s", tt.input, err)
		}
	}
}

// testInstructions checks that actual starts with the concatenation of
// expected; every compiled unit carries a trailing implicit OP_NIL/OP_RETURN
// that the test cases above don't spell out.
func testInstructions(expected []code.Instructions, actual code.Instructions) error {
	concatted := concatInstructions(expected)

	if len(actual) < len(concatted) {
		return fmt.Errorf("instructions shorter than expected.\nwant=%q\ngot=%q", concatted, actual)
	}

	for i, ins := range concatted {
		if actual[i] != ins {
			return fmt.Errorf("wrong instruction at %d.\nwant=%q\ngot=%q", i, concatted, actual)
		}
	}

	return nil
}

func concatInstructions(s []code.Instructions) code.Instructions {
	out := code.Instructions{}
	for _, ins := range s {
		out = append(out, ins...)
	}
	return out
}

func testConstants(expected []interface{}, actual []object.Value) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("wrong number of constants. got=%d, want=%d", len(actual), len(expected))
	}

	for i, constant := range expected {
		switch constant := constant.(type) {
		case float64:
			if !actual[i].IsNumber() || actual[i].AsNumber() != constant {
				return fmt.Errorf("constant %d: got=%v, want number %v", i, actual[i], constant)
			}
		case string:
			if !actual[i].IsString() || actual[i].AsString() != constant {
				return fmt.Errorf("constant %d: got=%v, want string %q", i, actual[i], constant)
			}
		}
	}

	return nil
}
