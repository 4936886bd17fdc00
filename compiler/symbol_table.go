package compiler

// local tracks one declared local variable's name and the block depth it
// was declared at. locals[i]'s position in the slice is its stack slot
// within the function's frame. The table belongs to one function at a
// time and is thrown away once that function finishes compiling.
type local struct {
	name     string
	depth    int
	captured bool
}

// upvalueRef records how one of a function's upvalues is populated:
// straight off a local slot in the immediately enclosing function, or
// inherited from that function's own upvalue list (flat-closure
// conversion for captures more than one level removed).
type upvalueRef struct {
	index   int
	isLocal bool
}

// scope is a compiler's view of its own function body: the locals declared
// so far, the current block nesting depth, and the upvalues this function
// needs its enclosing OP_CLOSURE instruction to populate. Globals are not
// tracked here at all: a global reference compiles straight to an
// interned-string constant-pool index, so there is no slot to resolve
// ahead of time the way a local or upvalue needs.
type scope struct {
	locals    []local
	depth     int
	upvalues  []upvalueRef
	enclosing *scope
}

// newScope creates a function-level scope. Stack slot 0 of every frame
// holds the closure being called (see vm.call's frame.slots arithmetic),
// so local index 0 is reserved for it up front — the first real local a
// function declares (its first parameter, or its first block-local for
// the top-level script) lands at index 1, matching the stack layout the
// VM actually produces.
func newScope(enclosing *scope) *scope {
	return &scope{enclosing: enclosing, locals: []local{{name: "", depth: 0}}}
}

// declareLocal adds name as a local in the current block. Redeclaring the
// same name in the same block shadows the earlier one; this front end
// does not enforce the declaration-conflict diagnostics a full parser
// would, since it exists only to drive a well-forming compiler.
func (s *scope) declareLocal(name string) int {
	s.locals = append(s.locals, local{name: name, depth: s.depth})
	return len(s.locals) - 1
}

// resolveLocal looks up name among locals visible in this function,
// innermost declaration first so shadowing resolves to the right slot.
func (s *scope) resolveLocal(name string) (int, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue finds name in an enclosing function, threading it through
// every intermediate function's own upvalue list so a capture several
// scopes deep still resolves to a flat index at each level — the
// isLocal/index pairs OP_CLOSURE reads rely on this.
func (s *scope) resolveUpvalue(name string) (int, bool) {
	if s.enclosing == nil {
		return 0, false
	}

	if localIdx, ok := s.enclosing.resolveLocal(name); ok {
		s.enclosing.locals[localIdx].captured = true
		return s.addUpvalue(localIdx, true), true
	}

	if upvalIdx, ok := s.enclosing.resolveUpvalue(name); ok {
		return s.addUpvalue(upvalIdx, false), true
	}

	return 0, false
}

// addUpvalue records a new upvalue, or reuses an existing entry that
// already captures the same source, so two references to the same
// captured variable share one upvalue slot.
func (s *scope) addUpvalue(index int, isLocal bool) int {
	for i, uv := range s.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	s.upvalues = append(s.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(s.upvalues) - 1
}

// beginBlock enters a new lexical block within the current function.
func (s *scope) beginBlock() { s.depth++ }

// endBlock leaves the current lexical block, returning the locals that
// went out of scope (innermost first) so the caller can emit the matching
// OP_POP / OP_CLOSE_UPVALUE instructions before discarding them.
func (s *scope) endBlock() []local {
	s.depth--

	cut := len(s.locals)
	for cut > 0 && s.locals[cut-1].depth > s.depth {
		cut--
	}
	popped := make([]local, len(s.locals)-cut)
	for i := len(s.locals) - 1; i >= cut; i-- {
		popped[len(s.locals)-1-i] = s.locals[i]
	}
	s.locals = s.locals[:cut]
	return popped
}
