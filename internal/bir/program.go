// Package bir (basic-block IR) holds the numified program model the core
// consumes (spec §3 Program/Function/BasicBlock, §6 "input program shape").
// Decoding uses github.com/bytedance/sonic instead of encoding/json: the
// program is the one input the core reads wholesale before the hot loop
// starts, and sonic is the fast-JSON library the retrieved pack's own
// source carries, so loading a large numified program pays for it once.
package bir

import (
	"os"

	"github.com/bytedance/sonic"

	"brili/internal/ierr"
)

// Type is a Bril scalar type. Only Int, Bool and Float may appear as a
// declared argument or constant type; Pointer-typed entry arguments are
// impossible per §4.7 step 3.
type Type string

const (
	TypeInt   Type = "int"
	TypeBool  Type = "bool"
	TypeFloat Type = "float"
	TypePtr   Type = "ptr"
)

// Pos is the optional source position carried by a function or instruction.
// A decoded position with a non-zero line or column counts as known.
type Pos struct {
	Line   int  `json:"line"`
	Column int  `json:"col"`
	Known  bool `json:"-"`
}

func (p Pos) ToIErr() ierr.Pos {
	known := p.Known || p.Line != 0 || p.Column != 0
	return ierr.Pos{Line: p.Line, Column: p.Column, Known: known}
}

// Op identifies the opcode of a numified instruction.
type Op string

const (
	OpConst  Op = "const"
	OpAdd    Op = "add"
	OpSub    Op = "sub"
	OpMul    Op = "mul"
	OpDiv    Op = "div"
	OpEq     Op = "eq"
	OpLt     Op = "lt"
	OpGt     Op = "gt"
	OpLe     Op = "le"
	OpGe     Op = "ge"
	OpNot    Op = "not"
	OpAnd    Op = "and"
	OpOr     Op = "or"
	OpFadd   Op = "fadd"
	OpFsub   Op = "fsub"
	OpFmul   Op = "fmul"
	OpFdiv   Op = "fdiv"
	OpFeq    Op = "feq"
	OpFlt    Op = "flt"
	OpFgt    Op = "fgt"
	OpFle    Op = "fle"
	OpFge    Op = "fge"
	OpID     Op = "id"
	OpAlloc  Op = "alloc"
	OpLoad   Op = "load"
	OpStore  Op = "store"
	OpFree   Op = "free"
	OpPtrAdd Op = "ptradd"
	OpCall   Op = "call"
	OpPhi    Op = "phi"
	OpJump   Op = "jmp"
	OpBranch Op = "br"
	OpReturn Op = "ret"
	OpPrint  Op = "print"
	OpNop    Op = "nop"

	OpSpeculate Op = "speculate"
	OpCommit    Op = "commit"
	OpGuard     Op = "guard"
)

// Instr is a numified instruction: destination, arguments and function
// references have already been rewritten to dense indices by the (out of
// scope) numifier (spec §3, §9 "dense indices over names").
type Instr struct {
	Op       Op     `json:"op"`
	Dest     int    `json:"dest"`
	HasDest  bool   `json:"has_dest"`
	DestType Type   `json:"type,omitempty"`
	Args     []int  `json:"args,omitempty"`
	Funcs    []int  `json:"funcs,omitempty"`
	// Labels holds a Phi instruction's per-argument provenance label names
	// (spec §4.4 Phi), matched against the walker's last-executed-block
	// label — it is the one place a numified instruction still carries a
	// name rather than a dense index, since phi provenance is resolved
	// against the walker's runtime label, not a static block index.
	Labels   []string `json:"labels,omitempty"`
	LitKind  LiteralKind `json:"lit_kind,omitempty"`
	IntLit   int64   `json:"int_lit,omitempty"`
	BoolLit  bool    `json:"bool_lit,omitempty"`
	FloatLit float64 `json:"float_lit,omitempty"`
	Pos      Pos     `json:"pos,omitempty"`
}

// LiteralKind tags which field of a Const instruction's literal is live.
type LiteralKind string

const (
	LitInt   LiteralKind = "int"
	LitBool  LiteralKind = "bool"
	LitFloat LiteralKind = "float"
)

// Block is one basic block (spec §3 BasicBlock).
type Block struct {
	Label  string  `json:"label,omitempty"`
	Instrs []Instr `json:"instrs"`
	// Exit lists successor block indices: length 0 = terminal, 1 =
	// unconditional/fall-through, 2 = conditional (taken, not-taken).
	Exit []int `json:"exit"`
}

// Arg is a declared formal parameter of a function.
type Arg struct {
	Name  string `json:"name"`
	Type  Type   `json:"type"`
	Index int    `json:"index"`
}

// Function is one Bril function, already lowered to basic blocks with
// dense variable indices (spec §3 Program/Function).
type Function struct {
	Name       string  `json:"name"`
	RetType    Type    `json:"ret_type,omitempty"`
	HasRetType bool    `json:"has_ret_type"`
	Args       []Arg   `json:"args,omitempty"`
	NumVars    int     `json:"num_vars"`
	Blocks     []Block `json:"blocks"`
	Pos        Pos     `json:"pos,omitempty"`
}

// Program is the whole numified program (spec §3).
type Program struct {
	Functions []Function `json:"functions"`
	EntryIdx  int        `json:"entry_idx"`
}

// Entry returns the entry function named by EntryIdx, or NoMainFunction if
// the program declares no functions or the index is out of range.
func (p *Program) Entry() (*Function, error) {
	if len(p.Functions) == 0 || p.EntryIdx < 0 || p.EntryIdx >= len(p.Functions) {
		return nil, &ierr.NoMainFunction{}
	}
	return &p.Functions[p.EntryIdx], nil
}

// Load decodes a numified program from path.
func Load(path string) (*Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ierr.IoError{Cause: err}
	}
	var p Program
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return nil, &ierr.IoError{Cause: err}
	}
	return &p, nil
}
