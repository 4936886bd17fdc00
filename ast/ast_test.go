package ast

import (
	"testing"

	"github.com/loxlang/loxvm/token"
)

func TestString(t *testing.T) {
	program := &Program{
		Statements: []Statement{
			// var a = b;
			&VarStatement{
				Token: token.Token{Type: token.VAR, Literal: "var"},
				Name: &Identifier{
					Token: token.Token{Type: token.IDENT, Literal: "a"},
					Value: "a",
				},
				Initializer: &Identifier{
					Token: token.Token{Type: token.IDENT, Literal: "b"},
					Value: "b",
				},
			},
			// print a;
			&PrintStatement{
				Token: token.Token{Type: token.PRINT, Literal: "print"},
				Value: &Identifier{
					Token: token.Token{Type: token.IDENT, Literal: "a"},
					Value: "a",
				},
			},
		},
	}

	// validate the first statement is a VarStatement
	varStmt, ok := program.Statements[0].(*VarStatement)
	if !ok {
		t.Fatalf("program.Statements[0] not VarStatement. got=%T", varStmt)
	}

	// validate the second statement is a PrintStatement
	printStmt, ok := program.Statements[1].(*PrintStatement)
	if !ok {
		t.Fatalf("program.Statements[1] not PrintStatement. got=%T", printStmt)
	}

	want := "var a = b;print a;"
	if program.String() != want {
		t.Errorf("program.String() = %q, want %q", program.String(), want)
	}
}

func TestVarStatementWithoutInitializer(t *testing.T) {
	vs := &VarStatement{
		Token: token.Token{Type: token.VAR, Literal: "var"},
		Name:  &Identifier{Token: token.Token{Type: token.IDENT, Literal: "a"}, Value: "a"},
	}
	want := "var a;"
	if vs.String() != want {
		t.Errorf("vs.String() = %q, want %q", vs.String(), want)
	}
}

func TestBinaryExpressionString(t *testing.T) {
	expr := &BinaryExpression{
		Token:    token.Token{Type: token.PLUS, Literal: "+"},
		Left:     &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "1"}, Value: 1},
		Operator: "+",
		Right:    &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "2"}, Value: 2},
	}
	want := "(1 + 2)"
	if expr.String() != want {
		t.Errorf("expr.String() = %q, want %q", expr.String(), want)
	}
}

func TestCallExpressionString(t *testing.T) {
	call := &CallExpression{
		Token:  token.Token{Type: token.LPAREN, Literal: "("},
		Callee: &Identifier{Token: token.Token{Type: token.IDENT, Literal: "add"}, Value: "add"},
		Arguments: []Expression{
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "1"}, Value: 1},
			&NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "2"}, Value: 2},
		},
	}
	want := "add(1, 2)"
	if call.String() != want {
		t.Errorf("call.String() = %q, want %q", call.String(), want)
	}
}

func TestForStatementString(t *testing.T) {
	fs := &ForStatement{
		Token: token.Token{Type: token.FOR, Literal: "for"},
		Initializer: &VarStatement{
			Token:       token.Token{Type: token.VAR, Literal: "var"},
			Name:        &Identifier{Token: token.Token{Type: token.IDENT, Literal: "i"}, Value: "i"},
			Initializer: &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "0"}, Value: 0},
		},
		Condition: &BinaryExpression{
			Token:    token.Token{Type: token.LT, Literal: "<"},
			Left:     &Identifier{Token: token.Token{Type: token.IDENT, Literal: "i"}, Value: "i"},
			Operator: "<",
			Right:    &NumberLiteral{Token: token.Token{Type: token.NUMBER, Literal: "10"}, Value: 10},
		},
		Body: &BlockStatement{Token: token.Token{Type: token.LBRACE, Literal: "{"}},
	}

	want := "for (var i = 0;(i < 10);) {}"
	if fs.String() != want {
		t.Errorf("fs.String() = %q, want %q", fs.String(), want)
	}
}
