package kinetic

import (
	"container/list"
	"fmt"
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultExprCacheSize is the number of compiled expressions kept by the
// package cache.
const DefaultExprCacheSize = 256

// exprCache holds compiled programs keyed by their source.
var exprCache = NewExprCache(DefaultExprCacheSize)

// ExprCache is a bounded LRU cache of compiled expressions.
type ExprCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int
}

type exprCacheEntry struct {
	source  string
	program *vm.Program
}

// NewExprCache creates a cache holding at most maxSize programs. A maxSize
// below 1 is treated as 1.
func NewExprCache(maxSize int) *ExprCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &ExprCache{
		entries: make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the program compiled from source and marks it most recently used.
func (c *ExprCache) Get(source string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[source]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(el)
	return el.Value.(*exprCacheEntry).program, true
}

// Put stores a program, evicting the least recently used one when full.
func (c *ExprCache) Put(source string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[source]; ok {
		el.Value.(*exprCacheEntry).program = program
		c.lru.MoveToFront(el)
		return
	}
	c.entries[source] = c.lru.PushFront(&exprCacheEntry{source: source, program: program})
	c.evict()
}

// Resize changes the capacity, evicting entries as needed.
func (c *ExprCache) Resize(maxSize int) {
	if maxSize < 1 {
		maxSize = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = maxSize
	c.evict()
}

// Len returns the number of cached programs.
func (c *ExprCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *ExprCache) evict() {
	for c.lru.Len() > c.maxSize {
		el := c.lru.Back()
		c.lru.Remove(el)
		delete(c.entries, el.Value.(*exprCacheEntry).source)
	}
}

// exprEnv returns the variables visible to an expression evaluated at t.
func exprEnv(t float64) map[string]any {
	return map[string]any{
		"t":   t,
		"pi":  math.Pi,
		"tau": 2 * math.Pi,
	}
}

func unaryMath(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("%s: want 1 argument, got %d", name, len(params))
		}
		x, err := exprFloat(params[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(x), nil
	})
}

func binaryMath(name string, fn func(a, b float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != 2 {
			return nil, fmt.Errorf("%s: want 2 arguments, got %d", name, len(params))
		}
		a, err := exprFloat(params[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		b, err := exprFloat(params[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(a, b), nil
	})
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Env(exprEnv(0)),
		unaryMath("sin", math.Sin),
		unaryMath("cos", math.Cos),
		unaryMath("tan", math.Tan),
		unaryMath("asin", math.Asin),
		unaryMath("acos", math.Acos),
		unaryMath("atan", math.Atan),
		unaryMath("sqrt", math.Sqrt),
		unaryMath("exp", math.Exp),
		unaryMath("log", math.Log),
		unaryMath("raised", RaisedCosine),
		unaryMath("hann", Hann),
		binaryMath("atan2", math.Atan2),
		binaryMath("pow", math.Pow),
		binaryMath("sinusoid", Sinusoid),
		expr.Function("clamp", func(params ...any) (any, error) {
			if len(params) != 3 {
				return nil, fmt.Errorf("clamp: want 3 arguments, got %d", len(params))
			}
			var xs [3]float64
			for i, p := range params {
				x, err := exprFloat(p)
				if err != nil {
					return nil, fmt.Errorf("clamp: %w", err)
				}
				xs[i] = x
			}
			return math.Max(xs[1], math.Min(xs[2], xs[0])), nil
		}),
	}
}

// CompileExpr compiles source, consulting the package cache first.
func CompileExpr(source string) (*vm.Program, error) {
	if p, ok := exprCache.Get(source); ok {
		return p, nil
	}
	p, err := expr.Compile(source, exprOptions()...)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", source, err)
	}
	exprCache.Put(source, p)
	return p, nil
}

// Expr compiles a textual expression of t into a Function. The expression
// may use the math functions sin, cos, tan, asin, acos, atan, atan2, sqrt,
// exp, log, pow, clamp, sinusoid, raised and hann, and the constants pi and
// tau. It may evaluate to a number or a list of numbers.
//
//	f, _ := Expr("100 * sinusoid(t * 0.5, 90)")
func Expr(source string) (*Function, error) {
	program, err := CompileExpr(source)
	if err != nil {
		return nil, err
	}
	return NewFunction(GeneratorFunc(func(t float64) Outcome {
		out, err := expr.Run(program, exprEnv(t))
		if err != nil {
			return Fail(fmt.Errorf("evaluate %q: %w", source, err))
		}
		v, err := exprValue(out)
		if err != nil {
			return Fail(fmt.Errorf("evaluate %q: %w", source, err))
		}
		return Emit(v)
	})), nil
}

// MustExpr is like Expr but panics on a compile error.
func MustExpr(source string) *Function {
	f, err := Expr(source)
	if err != nil {
		panic(err)
	}
	return f
}

func exprFloat(x any) (float64, error) {
	switch n := x.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("not a number: %T", x)
	}
}

func exprValue(out any) (Value, error) {
	switch x := out.(type) {
	case []float64:
		return Value(x).Clone(), nil
	case []any:
		v := make(Value, len(x))
		for i, e := range x {
			f, err := exprFloat(e)
			if err != nil {
				return nil, err
			}
			v[i] = f
		}
		return v, nil
	default:
		f, err := exprFloat(out)
		if err != nil {
			return nil, err
		}
		return Scalar(f), nil
	}
}
