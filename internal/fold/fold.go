// Package fold implements the constant-folding evaluator table shared by
// constant propagation (spec.md §4.4) and local value numbering
// (spec.md §4.7): "the folding table is a mapping op → evaluator... a
// lookup table of function values" (spec.md §9).
package fold

import "fmt"

// Eval evaluates op over already-constant arguments (int64 or bool),
// following the operator table of spec.md §4.7. Division by zero folds to
// 0, deliberately, matching spec.md §7's documented permissive convention;
// divByZero reports whether that convention actually fired, so callers can
// surface a diag.DivisionByZero note (spec.md §4.9) at the site that holds
// the function/block/instruction coordinates.
func Eval(op string, args []any) (result any, divByZero bool, err error) {
	switch op {
	case "add", "sub", "mul", "div":
		x, y, err := ints(op, args)
		if err != nil {
			return nil, false, err
		}
		switch op {
		case "add":
			return x + y, false, nil
		case "sub":
			return x - y, false, nil
		case "mul":
			return x * y, false, nil
		case "div":
			if y == 0 {
				return int64(0), true, nil
			}
			return x / y, false, nil
		}
	case "eq", "lt", "le", "gt", "ge":
		v, err := compare(op, args)
		return v, false, err
	case "and", "or":
		x, y, err := bools(op, args)
		if err != nil {
			return nil, false, err
		}
		if op == "and" {
			return x && y, false, nil
		}
		return x || y, false, nil
	case "not":
		if len(args) != 1 {
			return nil, false, fmt.Errorf("fold: %s takes one argument, got %d", op, len(args))
		}
		b, ok := args[0].(bool)
		if !ok {
			return nil, false, fmt.Errorf("fold: %s expects a bool argument", op)
		}
		return !b, false, nil
	}
	return nil, false, fmt.Errorf("fold: unknown operator %q", op)
}

func ints(op string, args []any) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("fold: %s takes two arguments, got %d", op, len(args))
	}
	x, ok1 := args[0].(int64)
	y, ok2 := args[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("fold: %s expects integer arguments", op)
	}
	return x, y, nil
}

func bools(op string, args []any) (bool, bool, error) {
	if len(args) != 2 {
		return false, false, fmt.Errorf("fold: %s takes two arguments, got %d", op, len(args))
	}
	x, ok1 := args[0].(bool)
	y, ok2 := args[1].(bool)
	if !ok1 || !ok2 {
		return false, false, fmt.Errorf("fold: %s expects boolean arguments", op)
	}
	return x, y, nil
}

func compare(op string, args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("fold: %s takes two arguments, got %d", op, len(args))
	}
	if xi, ok := args[0].(int64); ok {
		yi, ok := args[1].(int64)
		if !ok {
			return nil, fmt.Errorf("fold: %s expects arguments of the same type", op)
		}
		switch op {
		case "eq":
			return xi == yi, nil
		case "lt":
			return xi < yi, nil
		case "le":
			return xi <= yi, nil
		case "gt":
			return xi > yi, nil
		case "ge":
			return xi >= yi, nil
		}
	}
	if xb, ok := args[0].(bool); ok && op == "eq" {
		yb, ok := args[1].(bool)
		if !ok {
			return nil, fmt.Errorf("fold: eq expects arguments of the same type")
		}
		return xb == yb, nil
	}
	return nil, fmt.Errorf("fold: %s does not apply to these argument types", op)
}

// Reflexive evaluates a comparison op whose two operands are known to be
// the same value (LVN, spec.md §4.7: "both arguments reference the same
// row index"): eq/le/ge are trivially true, lt/gt trivially false.
func Reflexive(op string) (any, bool) {
	switch op {
	case "eq", "le", "ge":
		return true, true
	case "lt", "gt":
		return false, true
	default:
		return nil, false
	}
}

// ShortCircuit reports the result of an or/and whose already-known constant
// operand makes the other operand's value irrelevant (LVN, spec.md §4.7):
// "or" with true, or "and" with false.
func ShortCircuit(op string, knownConst any) (any, bool) {
	b, ok := knownConst.(bool)
	if !ok {
		return nil, false
	}
	if op == "or" && b {
		return true, true
	}
	if op == "and" && !b {
		return false, true
	}
	return nil, false
}
