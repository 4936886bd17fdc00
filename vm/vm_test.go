package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/loxlang/loxvm/object"
)

// runSource interprets source against a fresh VM and returns everything
// written to stdout/stderr plus the InterpretResult, the shape every
// end-to-end scenario below checks against.
func runSource(t *testing.T, source string) (string, string, InterpretResult) {
	t.Helper()

	var out, errOut bytes.Buffer
	machine := New(WithOutput(&out), WithErrorOutput(&errOut), WithClock(func() float64 { return 0 }))
	result := machine.Interpret(source)
	return out.String(), errOut.String(), result
}

// Representative source-to-stdout scenarios covering arithmetic, string
// concatenation, recursion, and closures.
func TestArithmeticPrecedence(t *testing.T) {
	out, errOut, result := runSource(t, `print 1 + 2 * 3;`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "7\n" {
		t.Errorf("output = %q, want %q", out, "7\n")
	}
}

func TestStringConcatenation(t *testing.T) {
	out, errOut, result := runSource(t, `var a = "st"; var b = "ring"; print a + b;`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "string\n" {
		t.Errorf("output = %q, want %q", out, "string\n")
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `fun fib(n){ if (n<2) return n; return fib(n-1)+fib(n-2);} print fib(10);`
	out, errOut, result := runSource(t, src)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "55\n" {
		t.Errorf("output = %q, want %q", out, "55\n")
	}
}

// TestClosureCapturesSharedCounter verifies the open-to-closed upvalue
// transition keeps sharing correct: the three prints observe the same
// captured `i`, each one past where the compiled function's own frame has
// already returned.
func TestClosureCapturesSharedCounter(t *testing.T) {
	src := `fun makeCounter(){ var i=0; fun count(){ i=i+1; return i;} return count;} var c=makeCounter(); print c(); print c(); print c();`
	out, errOut, result := runSource(t, src)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "1\n2\n3\n" {
		t.Errorf("output = %q, want %q", out, "1\n2\n3\n")
	}
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	out, errOut, result := runSource(t, "var x;\nx();")
	if result != InterpretRuntimeError {
		t.Fatalf("Interpret = %s, want RUNTIME_ERROR", result)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "Can only call functions and classes.") {
		t.Errorf("stderr = %q, missing expected message", errOut)
	}
	if !strings.Contains(errOut, "[line 2] in script") {
		t.Errorf("stderr = %q, missing script trace line", errOut)
	}
}

func TestInfiniteRecursionOverflowsStack(t *testing.T) {
	out, errOut, result := runSource(t, "fun f(){f();} f();")
	if result != InterpretRuntimeError {
		t.Fatalf("Interpret = %s, want RUNTIME_ERROR", result)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, "Stack overflow.") {
		t.Errorf("stderr = %q, missing expected message", errOut)
	}
	frames := strings.Count(errOut, "in f()")
	if frames != FramesMax-1 {
		t.Errorf("trace depth = %d, want %d", frames, FramesMax-1)
	}
	if !strings.Contains(errOut, "in script") {
		t.Errorf("stderr = %q, missing the top-level script frame", errOut)
	}
}

// After a runtime error the VM resets to an idle state and accepts a fresh
// Interpret call.
func TestVMUsableAfterRuntimeError(t *testing.T) {
	var out, errOut bytes.Buffer
	machine := New(WithOutput(&out), WithErrorOutput(&errOut))

	if result := machine.Interpret("nil + 1;"); result != InterpretRuntimeError {
		t.Fatalf("first Interpret = %s, want RUNTIME_ERROR", result)
	}

	out.Reset()
	errOut.Reset()
	if result := machine.Interpret("print 1 + 1;"); result != InterpretOK {
		t.Fatalf("second Interpret = %s, stderr=%q", result, errOut.String())
	}
	if out.String() != "2\n" {
		t.Errorf("output = %q, want %q", out.String(), "2\n")
	}
}

func TestAddTypeMismatchIsRuntimeError(t *testing.T) {
	// A type mismatch on "+" must report RUNTIME_ERROR, not COMPILE_ERROR,
	// for consistency with every other type mismatch.
	_, errOut, result := runSource(t, `print 1 + "a";`)
	if result != InterpretRuntimeError {
		t.Fatalf("Interpret = %s, want RUNTIME_ERROR", result)
	}
	if !strings.Contains(errOut, "Operands must be two numbers or two strings.") {
		t.Errorf("stderr = %q, missing expected message", errOut)
	}
}

func TestDivisionByZeroIsNotAnError(t *testing.T) {
	out, errOut, result := runSource(t, `print 1 / 0;`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "+Inf\n" {
		t.Errorf("output = %q, want %q", out, "+Inf\n")
	}
}

func TestAndOrShortCircuit(t *testing.T) {
	out, errOut, result := runSource(t, `print false and (1/0); print true or (1/0);`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "false\ntrue\n" {
		t.Errorf("output = %q, want %q", out, "false\ntrue\n")
	}
}

func TestClockNativeUsesInjectedClock(t *testing.T) {
	out, errOut, result := runSource(t, `print clock();`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "0\n" {
		t.Errorf("output = %q, want %q", out, "0\n")
	}
}

func TestMatchNative(t *testing.T) {
	out, errOut, result := runSource(t, `print _match("^a+$", "aaa"); print _match("^a+$", "b");`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "true\nfalse\n" {
		t.Errorf("output = %q, want %q", out, "true\nfalse\n")
	}
}

func TestWhileAndForLoops(t *testing.T) {
	out, errOut, result := runSource(t, `
var sum = 0;
for (var i = 0; i < 5; i = i + 1) { sum = sum + i; }
print sum;
var n = 0;
while (n < 3) { n = n + 1; }
print n;
`)
	if result != InterpretOK {
		t.Fatalf("Interpret = %s, stderr=%q", result, errOut)
	}
	if out != "10\n3\n" {
		t.Errorf("output = %q, want %q", out, "10\n3\n")
	}
}

// TestCaptureUpvalueOrdersOpenListDescending captures three stack slots out
// of order and checks that the open list ends up sorted strictly
// descending by Slot with no duplicate entries, and that capturing an
// already-open slot again returns the existing upvalue rather than a new
// one.
func TestCaptureUpvalueOrdersOpenListDescending(t *testing.T) {
	machine := New(WithOutput(new(bytes.Buffer)))
	machine.stack[2] = object.Number(2)
	machine.stack[5] = object.Number(5)
	machine.stack[8] = object.Number(8)

	uv5 := machine.captureUpvalue(5)
	uv2 := machine.captureUpvalue(2)
	uv8 := machine.captureUpvalue(8)

	if again := machine.captureUpvalue(5); again != uv5 {
		t.Errorf("captureUpvalue(5) on an already-open slot returned a new upvalue instead of reusing uv5")
	}

	var slots []int
	for uv := machine.openUpvalues; uv != nil; uv = uv.Next {
		slots = append(slots, uv.Slot)
	}
	want := []int{8, 5, 2}
	if len(slots) != len(want) {
		t.Fatalf("open list slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("open list slots = %v, want %v", slots, want)
		}
	}
	if machine.openUpvalues != uv8 {
		t.Errorf("open list head = %v, want the upvalue captured for slot 8", machine.openUpvalues)
	}
	if machine.openUpvalues.Next != uv5 || machine.openUpvalues.Next.Next != uv2 {
		t.Errorf("open list linkage does not match the expected descending order")
	}
}

// TestCloseUpvaluesIsIdempotent checks that closing an already-closed
// range is a no-op: the second call neither panics nor disturbs the
// upvalue's already-captured value.
func TestCloseUpvaluesIsIdempotent(t *testing.T) {
	machine := New(WithOutput(new(bytes.Buffer)))
	machine.stack[3] = object.Number(42)
	machine.stack[6] = object.Number(99)
	uvLow := machine.captureUpvalue(3)
	uvHigh := machine.captureUpvalue(6)

	machine.closeUpvalues(5)

	if !uvHigh.IsClosed {
		t.Fatalf("upvalue at slot 6 not closed after closeUpvalues(5)")
	}
	if uvLow.IsClosed {
		t.Fatalf("upvalue at slot 3 was closed by closeUpvalues(5), should still be open")
	}
	if machine.openUpvalues != uvLow {
		t.Fatalf("open list after closeUpvalues(5) = %v, want only the slot-3 upvalue left open", machine.openUpvalues)
	}
	if !object.Equal(uvHigh.Closed, object.Number(99)) {
		t.Fatalf("closed upvalue value = %v, want 99", uvHigh.Closed)
	}

	machine.closeUpvalues(5)

	if !uvHigh.IsClosed || !object.Equal(uvHigh.Closed, object.Number(99)) {
		t.Errorf("second closeUpvalues(5) call disturbed the already-closed upvalue")
	}
	if uvLow.IsClosed {
		t.Errorf("second closeUpvalues(5) call closed an upvalue below the threshold")
	}
	if machine.openUpvalues != uvLow {
		t.Errorf("second closeUpvalues(5) call changed the open list, want it left untouched")
	}
}

func TestStackBalanceAfterSuccessfulRun(t *testing.T) {
	machine := New(WithOutput(new(bytes.Buffer)))
	if result := machine.Interpret(`var a = 1; { var b = 2; print a + b; } print a;`); result != InterpretOK {
		t.Fatalf("Interpret = %s", result)
	}
	if machine.stackTop != 0 {
		t.Errorf("stackTop = %d, want 0 after a successful run", machine.stackTop)
	}
}
