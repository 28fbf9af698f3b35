package bir

import (
	"encoding/json"
	"fmt"
	"io"
)

// wireInstr mirrors the JSON shape of spec.md §6: either {"label": "..."}
// or an op object carrying whichever of dest/type/value/args/labels/funcs
// its op needs. No third-party struct-tag JSON library in the retrieved
// corpus offers anything beyond what encoding/json already does for a
// tagged union like this (see DESIGN.md); we decode into this envelope
// first and dispatch on which fields are present.
type wireInstr struct {
	Label  *string         `json:"label,omitempty"`
	Op     *string         `json:"op,omitempty"`
	Dest   *string         `json:"dest,omitempty"`
	Type   *string         `json:"type,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Args   []string        `json:"args,omitempty"`
	Labels []string        `json:"labels,omitempty"`
	Funcs  []string        `json:"funcs,omitempty"`
}

type wireParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireFunction struct {
	Name   string      `json:"name"`
	Args   []wireParam `json:"args,omitempty"`
	Type   *string     `json:"type,omitempty"`
	Instrs []wireInstr `json:"instrs"`
}

type wireProgram struct {
	Functions []wireFunction `json:"functions"`
}

var terminatorOps = map[string]bool{OpJmp: true, OpBr: true, OpRet: true}

// Decode reads a program from r in the wire format of spec.md §6. Each
// function's flat instrs list (labels interleaved with instructions) is
// kept flat here; internal/cfg.Build partitions it into basic blocks.
func Decode(r io.Reader) (*Program, error) {
	var wp wireProgram
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&wp); err != nil {
		return nil, fmt.Errorf("bir: decode program: %w", err)
	}

	prog := &Program{}
	for _, wf := range wp.Functions {
		fn := &Function{Name: wf.Name}
		for _, p := range wf.Args {
			fn.Params = append(fn.Params, Parameter{Name: p.Name, Type: Type(p.Type)})
		}
		if wf.Type != nil {
			fn.ReturnType = Type(*wf.Type)
			fn.HasReturn = true
		}

		flat := make([]*Instruction, 0, len(wf.Instrs))
		for _, wi := range wf.Instrs {
			instr, err := decodeInstr(wi)
			if err != nil {
				return nil, fmt.Errorf("bir: function %q: %w", fn.Name, err)
			}
			flat = append(flat, instr)
		}
		fn.Blocks = []*Block{{Instrs: flat}} // placeholder single "block"; cfg.Build repartitions.
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func decodeInstr(wi wireInstr) (*Instruction, error) {
	if wi.Label != nil {
		return &Instruction{Category: CategoryLabel, Label: *wi.Label}, nil
	}
	if wi.Op == nil {
		return nil, fmt.Errorf("malformed instruction: missing both label and op")
	}
	op := *wi.Op

	instr := &Instruction{Op: op, Args: wi.Args, Labels: wi.Labels, Funcs: wi.Funcs}
	if wi.Dest != nil {
		instr.Dest = *wi.Dest
	}
	if wi.Type != nil {
		instr.Type = Type(*wi.Type)
	}

	switch {
	case op == OpConst:
		instr.Category = CategoryConst
		v, err := decodeLiteral(wi.Value)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", instr.Dest, err)
		}
		instr.Value = v
	case terminatorOps[op]:
		instr.Category = CategoryTerminator
	case wi.Dest != nil:
		instr.Category = CategoryValue
	default:
		instr.Category = CategoryEffect
	}
	return instr, nil
}

func decodeLiteral(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("const instruction missing value")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer numeric literal %q: %w", n, err)
		}
		return i, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	return nil, fmt.Errorf("unsupported literal %s", raw)
}

// Encode writes p to w in the pretty-printed (two-space indent) wire format
// of spec.md §6, flattening each function's blocks back into a single
// instrs list with label pseudo-instructions reinserted.
func Encode(w io.Writer, p *Program) error {
	wp := wireProgram{}
	for _, fn := range p.Functions {
		wf := wireFunction{Name: fn.Name}
		for _, param := range fn.Params {
			wf.Args = append(wf.Args, wireParam{Name: param.Name, Type: string(param.Type)})
		}
		if fn.HasReturn {
			t := string(fn.ReturnType)
			wf.Type = &t
		}
		for _, b := range fn.Blocks {
			if b.Label != "" && !b.Synthetic {
				label := b.Label
				wf.Instrs = append(wf.Instrs, wireInstr{Label: &label})
			}
			for _, instr := range b.Instrs {
				wf.Instrs = append(wf.Instrs, encodeInstr(instr))
			}
		}
		wp.Functions = append(wp.Functions, wf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wp); err != nil {
		return fmt.Errorf("bir: encode program: %w", err)
	}
	return nil
}

func encodeInstr(i *Instruction) wireInstr {
	if i.IsLabel() {
		label := i.Label
		return wireInstr{Label: &label}
	}
	wi := wireInstr{Args: i.Args, Labels: i.Labels, Funcs: i.Funcs}
	op := i.Op
	wi.Op = &op
	if i.HasDest() {
		dest := i.Dest
		wi.Dest = &dest
		typ := string(i.Type)
		wi.Type = &typ
	}
	if i.Category == CategoryConst {
		raw, _ := json.Marshal(i.Value)
		wi.Value = raw
	}
	return wi
}
