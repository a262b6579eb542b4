package solver

// Term is coefficient * variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression sum(Terms) + Const. Terms may repeat a
// variable; backends merge them.
type Expr struct {
	Terms []Term
	Const float64
}

// NewExpr returns an expression holding a single term.
func NewExpr(v Var, coef float64) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: coef}}}
}

// Constant returns an expression without terms.
func Constant(c float64) Expr { return Expr{Const: c} }

// Add appends coef * v.
func (e *Expr) Add(v Var, coef float64) {
	if coef == 0 {
		return
	}
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddConst adds to the constant part.
func (e *Expr) AddConst(c float64) { e.Const += c }

// AddExpr appends scale * o.
func (e *Expr) AddExpr(o Expr, scale float64) {
	if scale == 0 {
		return
	}
	for _, t := range o.Terms {
		e.Add(t.Var, t.Coef*scale)
	}
	e.Const += o.Const * scale
}

// Scaled returns a copy multiplied by f.
func (e Expr) Scaled(f float64) Expr {
	var out Expr
	out.AddExpr(e, f)
	return out
}

// Sum returns the sum of the given expressions.
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, x := range exprs {
		out.AddExpr(x, 1)
	}
	return out
}

// Eval evaluates the expression at the given variable values.
func (e Expr) Eval(value func(Var) float64) float64 {
	total := e.Const
	for _, t := range e.Terms {
		total += t.Coef * value(t.Var)
	}
	return total
}

// Merged returns coefficients keyed by variable id, dropping zeros.
func (e Expr) Merged() map[int]float64 {
	out := make(map[int]float64, len(e.Terms))
	for _, t := range e.Terms {
		out[t.Var.ID] += t.Coef
	}
	for id, c := range out {
		if c == 0 {
			delete(out, id)
		}
	}
	return out
}
