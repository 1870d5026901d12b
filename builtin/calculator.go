package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/fwojciec/chatkit"
)

type calculatorArgs struct {
	Expression string `json:"expression"`
}

// ExecuteCalculator evaluates an arithmetic expression with exact
// arbitrary-precision constants.
func ExecuteCalculator(_ context.Context, args json.RawMessage) (*chatkit.ToolResult, error) {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return domainError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	if strings.TrimSpace(a.Expression) == "" {
		return domainError("expression is required"), nil
	}
	v, err := Evaluate(a.Expression)
	if err != nil {
		return domainError(err.Error()), nil
	}
	return textResult(v), nil
}

// Evaluate computes expr and formats the result.
func Evaluate(expr string) (string, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return "", fmt.Errorf("cannot parse %q", expr)
	}
	v, err := eval(node)
	if err != nil {
		return "", err
	}
	return format(v), nil
}

var errUnsupported = errors.New("only numbers, + - * / % and parentheses are supported")

func eval(n ast.Expr) (constant.Value, error) {
	switch n := n.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return nil, errUnsupported
		}
		return constant.MakeFromLiteral(n.Value, n.Kind, 0), nil
	case *ast.ParenExpr:
		return eval(n.X)
	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		if n.Op != token.SUB && n.Op != token.ADD {
			return nil, errUnsupported
		}
		return constant.UnaryOp(n.Op, x, 0), nil
	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return nil, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, x, y)
	default:
		return nil, errUnsupported
	}
}

func binary(op token.Token, x, y constant.Value) (constant.Value, error) {
	switch op {
	case token.ADD, token.SUB, token.MUL:
		return constant.BinaryOp(x, op, y), nil
	case token.QUO:
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		return constant.BinaryOp(constant.ToFloat(x), token.QUO, constant.ToFloat(y)), nil
	case token.REM:
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, errors.New("% requires integers")
		}
		if constant.Sign(y) == 0 {
			return nil, errors.New("division by zero")
		}
		return constant.BinaryOp(x, token.REM, y), nil
	default:
		return nil, errUnsupported
	}
}

func format(v constant.Value) string {
	if i := constant.ToInt(v); i.Kind() == constant.Int {
		return i.ExactString()
	}
	f, _ := constant.Float64Val(v)
	return strconv.FormatFloat(f, 'g', -1, 64)
}
