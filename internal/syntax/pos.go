package syntax

import "fmt"

// Pos is a source position, 1-based, as produced by internal/lexer.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// NoPos is used for synthetic nodes the elaborator builds itself
// (inserted lambdas, fresh meta spines) that never came from source.
var NoPos = Pos{}
