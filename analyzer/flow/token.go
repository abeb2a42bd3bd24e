package flow

import "github.com/viant/pyflow/parser"

// Token is a dependency token: a variable name, or, when the evaluator
// tracks constants, a literal-constant node.
type Token struct {
	Name  string
	Const *parser.Node
}

// NameToken returns a token for a variable name.
func NameToken(name string) Token { return Token{Name: name} }

// ConstToken returns a token carrying a literal-constant node.
func ConstToken(n *parser.Node) Token { return Token{Const: n} }

// IsConst reports whether the token carries a literal constant.
func (t Token) IsConst() bool { return t.Const != nil }

func (t Token) String() string {
	if t.IsConst() {
		return t.Const.Raw
	}
	return t.Name
}

// Dedup removes duplicate tokens preserving first occurrence order.
// Constant tokens compare by node identity.
func Dedup(tokens []Token) []Token {
	seen := map[Token]bool{}
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
