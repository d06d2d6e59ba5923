// Package scan implements the expression-driven scan/filter/peek/poke
// driver: it binds `addr` and `value` in a symbol table, compiles an
// expression once through internal/parser and internal/optimize, then
// walks candidate addresses evaluating that same compiled tree in a
// single-threaded, pause/resume-bracketed loop.
package scan

import (
	"memfuzz/internal/ast"
	"memfuzz/internal/errors"
	"memfuzz/internal/eval"
	"memfuzz/internal/lexer"
	"memfuzz/internal/optimize"
	"memfuzz/internal/parser"
	"memfuzz/internal/session"
	"memfuzz/internal/symtab"
	"memfuzz/internal/target"
	"memfuzz/internal/value"
)

// Compiled is an expression parsed and constant-folded once, ready to be
// evaluated repeatedly against many addresses without re-parsing.
type Compiled struct {
	Tree     *ast.Node
	addrCell *symtab.CellStorage
	valCell  *symtab.CellStorage
	addrType value.Type
	elemType value.Type
}

// Compile binds `addr` (of addrType, the target's address-width integer
// type) and `value` (of elemType) and parses expr against that table.
func Compile(expr string, addrType, elemType value.Type) (*Compiled, []error) {
	toks, lexErr := lexer.Tokens(expr)
	if lexErr != nil {
		return nil, []error{lexErr}
	}

	table := symtab.New()
	addrCell := symtab.NewCell(addrType)
	valCell := symtab.NewCell(elemType)
	_ = table.Insert("addr", addrType, addrCell)
	_ = table.Insert("value", elemType, valCell)

	p := parser.New(toks, expr, table)
	tree, errs := p.ParseExpression()
	if len(errs) > 0 {
		return nil, errs
	}
	return &Compiled{
		Tree:     optimize.Optimize(tree),
		addrCell: addrCell,
		valCell:  valCell,
		addrType: addrType,
		elemType: elemType,
	}, nil
}

// evalAt binds addr/value and evaluates the compiled tree at a single
// candidate address. ok is false when the read at a failed, in which
// case the candidate is skipped, not an error — a scan skips a failing
// address rather than aborting the whole run.
func (c *Compiled) evalAt(a target.Address, tgt target.MemoryTarget) (result value.Value, ok bool, err error) {
	c.addrCell.Store(addrValue(c.addrType, a))

	buf := make([]byte, c.elemType.Width())
	if err := tgt.Read(a, buf); err != nil {
		return value.Value{}, false, nil
	}
	c.valCell.Store(value.Decode(c.elemType, buf))

	// A scan skips any address where evaluation fails for any reason,
	// including a DEREF elsewhere in the expression hitting unmapped
	// memory.
	v, err := eval.Evaluate(c.Tree, tgt)
	if err != nil {
		return value.Value{}, false, nil
	}
	return v, true, nil
}

func addrValue(addrType value.Type, a target.Address) value.Value {
	if addrType == value.U64 {
		return value.Uint(value.U64, uint64(a))
	}
	return value.Uint(value.U32, uint64(a))
}

// Scan walks every readable region of tgt in region-iterator order,
// increasing address within each region, stepping by the element width,
// and records a hit at every address where the compiled expression
// evaluates to a non-zero S32. The target is paused for the duration of
// the scan and resumed afterward: it is conceptually stopped while any
// expression involving DEREF is evaluated, then resumed.
func (c *Compiled) Scan(tgt target.MemoryTarget) ([]session.Hit, error) {
	if err := tgt.Pause(); err != nil {
		return nil, err
	}
	defer tgt.Resume()

	regions, err := tgt.Regions()
	if err != nil {
		return nil, err
	}

	step := uint64(c.elemType.Width())
	var hits []session.Hit
	for _, r := range regions {
		if r.Prot&target.ProtRead == 0 {
			continue
		}
		for a := r.Start; a < r.End(); a += target.Address(step) {
			v, ok, err := c.evalAt(a, tgt)
			if err != nil {
				return hits, err
			}
			if !ok || v.IsZero() {
				continue
			}
			hits = append(hits, session.Hit{Address: a, Value: encodeCurrent(c, a, tgt)})
		}
	}
	return hits, nil
}

// Filter re-evaluates the compiled expression only against prior hits,
// the same mechanism as Scan applied to a narrower candidate set,
// preserving their order.
func (c *Compiled) Filter(tgt target.MemoryTarget, prior []session.Hit) ([]session.Hit, error) {
	if err := tgt.Pause(); err != nil {
		return nil, err
	}
	defer tgt.Resume()

	var out []session.Hit
	for _, h := range prior {
		v, ok, err := c.evalAt(h.Address, tgt)
		if err != nil {
			return out, err
		}
		if !ok || v.IsZero() {
			continue
		}
		out = append(out, session.Hit{Address: h.Address, Value: encodeCurrent(c, h.Address, tgt)})
	}
	return out, nil
}

func encodeCurrent(c *Compiled, a target.Address, tgt target.MemoryTarget) []byte {
	buf := make([]byte, c.elemType.Width())
	if err := tgt.Read(a, buf); err != nil {
		return nil
	}
	return buf
}

// Peek reads and decodes a single typed value at addr, for the `peek`
// shell command, pausing/resuming the target around the read like any
// other operation that touches target memory.
func Peek(tgt target.MemoryTarget, addr target.Address, t value.Type) (value.Value, error) {
	if err := tgt.Pause(); err != nil {
		return value.Value{}, err
	}
	defer tgt.Resume()

	buf := make([]byte, t.Width())
	if err := tgt.Read(addr, buf); err != nil {
		return value.Value{}, errors.MemoryRead(uint64(addr), t)
	}
	return value.Decode(t, buf), nil
}

// Poke writes v's encoded bytes to addr, for the `poke` shell command.
func Poke(tgt target.MemoryTarget, addr target.Address, v value.Value) error {
	if err := tgt.Pause(); err != nil {
		return err
	}
	defer tgt.Resume()

	buf := value.Encode(v)
	if err := tgt.Write(addr, buf); err != nil {
		return errors.MemoryWrite(uint64(addr), v.Type)
	}
	return nil
}

// Parse compiles expr against binds (or no bindings at all) and returns
// the optimized tree without evaluating it — the `explain` command's
// operation: parse and print, safe to run unattached.
func Parse(expr string, binds map[string]value.Value) (*ast.Node, error) {
	toks, lexErr := lexer.Tokens(expr)
	if lexErr != nil {
		return nil, lexErr
	}

	table := symtab.New()
	for name, v := range binds {
		cell := symtab.NewCell(v.Type)
		cell.Store(v)
		_ = table.Insert(name, v.Type, cell)
	}

	p := parser.New(toks, expr, table)
	tree, errs := p.ParseExpression()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return optimize.Optimize(tree), nil
}

// Eval parses and evaluates expr once in isolation, for the `eval`
// shell command, with no `addr`/`value` binding — only whatever
// identifiers binds supplies. Returns the compiled tree alongside the
// result so callers can render ast.Node.Print() for diagnostics.
func Eval(expr string, binds map[string]value.Value, tgt target.MemoryTarget) (*ast.Node, value.Value, error) {
	tree, err := Parse(expr, binds)
	if err != nil {
		return nil, value.Value{}, err
	}

	v, err := eval.Evaluate(tree, tgt)
	if err != nil {
		return tree, value.Value{}, err
	}
	return tree, v, nil
}
