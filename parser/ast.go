package parser

// Kind identifies the variant of a tree node.
type Kind string

const (
	KindModule      Kind = "Module"
	KindFunctionDef Kind = "FunctionDef"
	KindArguments   Kind = "Arguments"
	KindReturn      Kind = "Return"
	KindConstant    Kind = "Constant"
	KindName        Kind = "Name"
	KindExpr        Kind = "Expr"
	KindUnaryOp     Kind = "UnaryOp"
	KindBinOp       Kind = "BinOp"
	KindBoolOp      Kind = "BoolOp"
	KindCompare     Kind = "Compare"
	KindCall        Kind = "Call"
	KindIfExp       Kind = "IfExp"
	KindAttribute   Kind = "Attribute"
	KindSubscript   Kind = "Subscript"
	KindSlice       Kind = "Slice"
	KindList        Kind = "List"
	KindTuple       Kind = "Tuple"
	KindDict        Kind = "Dict"
	KindSet         Kind = "Set"
	KindAssign      Kind = "Assign"
	KindAugAssign   Kind = "AugAssign"
	KindIf          Kind = "If"
	KindFor         Kind = "For"
	KindWhile       Kind = "While"
	KindBreak       Kind = "Break"
	KindContinue    Kind = "Continue"
	KindPass        Kind = "Pass"
	// KindUnsupported marks constructs outside the analyzed subset; the
	// analysis skips them silently.
	KindUnsupported Kind = "Unsupported"
)

// Node is a structured program tree node. Every node carries its source line
// range and byte range; ID is a small integer used for scope-stack identity.
type Node struct {
	Kind      Kind
	ID        int
	Line      int
	EndLine   int
	StartByte uint32
	EndByte   uint32

	Name string // identifier, function name, attribute field
	Raw  string // constant literal source text
	Op   string // unary/binary/bool/augmented operator

	Params []string // positional parameter names (FunctionDef)

	Body   []*Node // suite of FunctionDef/If/For/While, Module statements
	Orelse []*Node // else suite of an If

	Targets     []*Node // assignment targets
	Value       *Node   // assign/return/expr value, attribute/subscript base
	Test        *Node   // if/while/conditional-expression test
	Then        *Node   // conditional-expression true arm
	Else        *Node   // conditional-expression false arm
	Target      *Node   // for-loop target, augmented-assign target
	Iter        *Node   // for-loop iterable
	Left        *Node   // binary/compare left operand
	Right       *Node   // binary right operand
	Operand     *Node   // unary operand
	Values      []*Node // bool-op operands, dict values
	Keys        []*Node // dict keys
	Elts        []*Node // list/tuple/set elements
	Comparators []*Node // compare right operands
	Ops         []string
	Func        *Node   // call target
	Args        []*Node // call arguments
	Index       *Node   // subscript index
	Lower       *Node   // slice bounds
	Upper       *Node
	Step        *Node
}

func (n *Node) children() []*Node {
	var out []*Node
	add := func(nodes ...*Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	add(n.Body...)
	add(n.Orelse...)
	add(n.Targets...)
	add(n.Value, n.Test, n.Then, n.Else, n.Target, n.Iter, n.Left, n.Right, n.Operand)
	add(n.Values...)
	add(n.Keys...)
	add(n.Elts...)
	add(n.Comparators...)
	add(n.Func)
	add(n.Args...)
	add(n.Index, n.Lower, n.Upper, n.Step)
	return out
}

// Walk traverses the tree depth-first; the visitor returns false to prune.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil || !visitor(n) {
		return
	}
	for _, c := range n.children() {
		c.Walk(visitor)
	}
}

// Copy returns a deep copy of the node. Node IDs and byte ranges are
// preserved so copies compare positionally equal to their originals.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Kind:      n.Kind,
		ID:        n.ID,
		Line:      n.Line,
		EndLine:   n.EndLine,
		StartByte: n.StartByte,
		EndByte:   n.EndByte,
		Name:      n.Name,
		Raw:       n.Raw,
		Op:        n.Op,
		Params:    append([]string(nil), n.Params...),
		Ops:       append([]string(nil), n.Ops...),
		Value:     n.Value.Copy(),
		Test:      n.Test.Copy(),
		Then:      n.Then.Copy(),
		Else:      n.Else.Copy(),
		Target:    n.Target.Copy(),
		Iter:      n.Iter.Copy(),
		Left:      n.Left.Copy(),
		Right:     n.Right.Copy(),
		Operand:   n.Operand.Copy(),
		Func:      n.Func.Copy(),
		Index:     n.Index.Copy(),
		Lower:     n.Lower.Copy(),
		Upper:     n.Upper.Copy(),
		Step:      n.Step.Copy(),
	}
	out.Body = copyNodes(n.Body)
	out.Orelse = copyNodes(n.Orelse)
	out.Targets = copyNodes(n.Targets)
	out.Values = copyNodes(n.Values)
	out.Keys = copyNodes(n.Keys)
	out.Elts = copyNodes(n.Elts)
	out.Comparators = copyNodes(n.Comparators)
	out.Args = copyNodes(n.Args)
	return out
}

func copyNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, c := range nodes {
		out[i] = c.Copy()
	}
	return out
}

// Equal reports structural equality. Node IDs, line numbers and byte ranges
// are ignored so that a transformed tree can be compared against a snapshot
// taken before substitutions moved nodes around.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind || n.Name != other.Name || n.Raw != other.Raw || n.Op != other.Op {
		return false
	}
	if len(n.Params) != len(other.Params) || len(n.Ops) != len(other.Ops) {
		return false
	}
	for i := range n.Params {
		if n.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range n.Ops {
		if n.Ops[i] != other.Ops[i] {
			return false
		}
	}
	singles := [][2]*Node{
		{n.Value, other.Value}, {n.Test, other.Test}, {n.Then, other.Then},
		{n.Else, other.Else}, {n.Target, other.Target}, {n.Iter, other.Iter},
		{n.Left, other.Left}, {n.Right, other.Right}, {n.Operand, other.Operand},
		{n.Func, other.Func}, {n.Index, other.Index}, {n.Lower, other.Lower},
		{n.Upper, other.Upper}, {n.Step, other.Step},
	}
	for _, pair := range singles {
		if !pair[0].Equal(pair[1]) {
			return false
		}
	}
	lists := [][2][]*Node{
		{n.Body, other.Body}, {n.Orelse, other.Orelse}, {n.Targets, other.Targets},
		{n.Values, other.Values}, {n.Keys, other.Keys}, {n.Elts, other.Elts},
		{n.Comparators, other.Comparators}, {n.Args, other.Args},
	}
	for _, pair := range lists {
		if len(pair[0]) != len(pair[1]) {
			return false
		}
		for i := range pair[0] {
			if !pair[0][i].Equal(pair[1][i]) {
				return false
			}
		}
	}
	return true
}

// CollectFunctions builds the function table with a single tree walk.
func CollectFunctions(root *Node) map[string]*Node {
	functions := map[string]*Node{}
	root.Walk(func(n *Node) bool {
		if n.Kind == KindFunctionDef {
			functions[n.Name] = n
		}
		return true
	})
	return functions
}
