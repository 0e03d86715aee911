/*
Copyright © 2025 Logicos Software

tree.go defines the parse tree produced by the parser.
*/
package parser

// The parse tree mirrors the grammar one-to-one:
//
//	exprList    := expr (',' expr)*
//	expr        := exprElement ('|' exprElement)*
//	exprElement := command | function | operatorExpr | literal | '(' exprList ')'
//	command     := Word commandArgs
//	function    := Word ('[' commandArgs ']')? '(' (expr (',' expr)*)? ')'
//	operatorExpr:= ('.' | '=' | '!=') commandArgs
//	commandArgs := (Word | Number | QuotedWord)*
//	literal     := QuotedWord | Number

// ExprList is a comma separated list of expressions.
type ExprList struct {
	Exprs []*Expr
	Pos   int
}

// Expr is a pipe separated list of elements.
type Expr struct {
	Elements []Element
	Pos      int
}

// Element is one of CommandElem, FunctionElem, OperatorElem, LiteralElem
// or GroupElem.
type Element interface {
	Position() int
	element()
}

// CommandElem is a simple command with its argument tokens.
type CommandElem struct {
	Name Token
	Args []Token
}

// FunctionElem is a function call with optional bracketed options and
// nested expression arguments.
type FunctionElem struct {
	Name    Token
	Options []Token
	Args    []*Expr
}

// OperatorElem is '.', '=' or '!=' followed by argument tokens.
type OperatorElem struct {
	Op   string
	Pos  int
	Args []Token
}

// LiteralElem is a quoted word or number in element position.
type LiteralElem struct {
	Tok Token
}

// GroupElem is a parenthesized expression list.
type GroupElem struct {
	List *ExprList
	Pos  int
}

func (e *CommandElem) Position() int  { return e.Name.Pos }
func (e *FunctionElem) Position() int { return e.Name.Pos }
func (e *OperatorElem) Position() int { return e.Pos }
func (e *LiteralElem) Position() int  { return e.Tok.Pos }
func (e *GroupElem) Position() int    { return e.Pos }

func (*CommandElem) element()  {}
func (*FunctionElem) element() {}
func (*OperatorElem) element() {}
func (*LiteralElem) element()  {}
func (*GroupElem) element()    {}
