// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"slices"
	"strings"

	"github.com/beevik/cmd"
)

// A command is the data stored with each entry in the command tree.
type command struct {
	name        string
	brief       string
	description string
	usage       string
	handler     func(h *Host, c cmd.Selection) error
}

// A commandTree mirrors a cmd.Tree and remembers its entries for help
// display.
type commandTree struct {
	tree     *cmd.Tree
	name     string
	brief    string
	commands []*command
	subtrees []*commandTree
}

func (t *commandTree) add(c *command) {
	t.commands = append(t.commands, c)
	t.tree.AddCommand(cmd.CommandDescriptor{
		Name:        c.name,
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	})
}

func (t *commandTree) subtree(name, brief string) *commandTree {
	s := &commandTree{
		tree:  t.tree.AddSubtree(cmd.TreeDescriptor{Name: name, Brief: brief}),
		name:  name,
		brief: brief,
	}
	t.subtrees = append(t.subtrees, s)
	return s
}

// Shortcuts that name a whole subtree.
var subtreeShortcuts = map[string]string{
	"b":   "breakpoint",
	"bp":  "breakpoint",
	"db":  "databreakpoint",
	"dbp": "databreakpoint",
}

// Find the subtree called 'name', or reached by a shortcut.
func (t *commandTree) findSubtree(name string) *commandTree {
	name = strings.ToLower(name)
	if full, ok := subtreeShortcuts[name]; ok {
		name = full
	}
	for _, s := range t.subtrees {
		if s.name == name {
			return s
		}
	}
	return nil
}

// entries returns the names and briefs of all commands and subtrees in
// alphabetical order.
func (t *commandTree) entries() [][2]string {
	var e [][2]string
	for _, c := range t.commands {
		if c.brief != "" {
			e = append(e, [2]string{c.name, c.brief})
		}
	}
	for _, s := range t.subtrees {
		e = append(e, [2]string{s.name, s.brief})
	}
	slices.SortFunc(e, func(a, b [2]string) int { return strings.Compare(a[0], b[0]) })
	return e
}

var cmds *commandTree

func init() {
	root := &commandTree{
		tree: cmd.NewTree(cmd.TreeDescriptor{Name: "go6809"}),
		name: "go6809",
	}
	root.add(&command{
		name:        "help",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		handler:     (*Host).cmdHelp,
	})
	root.add(&command{
		name:  "annotate",
		brief: "Annotate an address",
		description: "Provide a code annotation at a memory address." +
			" When disassembling code at this address, the annotation will" +
			" be displayed. Omit the annotation to remove it.",
		usage:   "annotate <address> [<string>]",
		handler: (*Host).cmdAnnotate,
	})

	// Breakpoint commands
	bp := root.subtree("breakpoint", "Breakpoint commands")
	bp.add(&command{
		name:        "list",
		brief:       "List breakpoints",
		description: "List all current breakpoints.",
		usage:       "breakpoint list",
		handler:     (*Host).cmdBreakpointList,
	})
	bp.add(&command{
		name:  "add",
		brief: "Add a breakpoint",
		description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		usage:   "breakpoint add <address>",
		handler: (*Host).cmdBreakpointAdd,
	})
	bp.add(&command{
		name:        "remove",
		brief:       "Remove a breakpoint",
		description: "Remove a breakpoint at the specified address.",
		usage:       "breakpoint remove <address>",
		handler:     (*Host).cmdBreakpointRemove,
	})
	bp.add(&command{
		name:        "enable",
		brief:       "Enable a breakpoint",
		description: "Enable a previously added breakpoint.",
		usage:       "breakpoint enable <address>",
		handler:     (*Host).cmdBreakpointEnable,
	})
	bp.add(&command{
		name:  "disable",
		brief: "Disable a breakpoint",
		description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		usage:   "breakpoint disable <address>",
		handler: (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db := root.subtree("databreakpoint", "Data breakpoint commands")
	db.add(&command{
		name:        "list",
		brief:       "List data breakpoints",
		description: "List all current data breakpoints.",
		usage:       "databreakpoint list",
		handler:     (*Host).cmdDataBreakpointList,
	})
	db.add(&command{
		name:  "add",
		brief: "Add a data breakpoint",
		description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte" +
			" value may be specified, and the CPU will stop only" +
			" when this value is stored. The data breakpoint starts" +
			" enabled.",
		usage:   "databreakpoint add <address> [<value>]",
		handler: (*Host).cmdDataBreakpointAdd,
	})
	db.add(&command{
		name:  "remove",
		brief: "Remove a data breakpoint",
		description: "Remove a previously added data breakpoint at" +
			" the specified memory address.",
		usage:   "databreakpoint remove <address>",
		handler: (*Host).cmdDataBreakpointRemove,
	})
	db.add(&command{
		name:        "enable",
		brief:       "Enable a data breakpoint",
		description: "Enable a previously added data breakpoint.",
		usage:       "databreakpoint enable <address>",
		handler:     (*Host).cmdDataBreakpointEnable,
	})
	db.add(&command{
		name:        "disable",
		brief:       "Disable a data breakpoint",
		description: "Disable a previously added data breakpoint.",
		usage:       "databreakpoint disable <address>",
		handler:     (*Host).cmdDataBreakpointDisable,
	})

	root.add(&command{
		name:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		usage:   "disassemble [<address>] [<lines>]",
		handler: (*Host).cmdDisassemble,
	})
	root.add(&command{
		name:  "evaluate",
		brief: "Evaluate an expression",
		description: "Evaluate a mathematical expression. Numbers may be" +
			" written in decimal, in hex with a $ prefix, or in binary with" +
			" a % prefix. Register names evaluate to register contents.",
		usage:   "evaluate <expression>",
		handler: (*Host).cmdEvaluate,
	})
	root.add(&command{
		name:  "execute",
		brief: "Execute a go6809 script file",
		description: "Load a go6809 script file from disk and execute the" +
			" commands it contains.",
		usage:   "execute <filename>",
		handler: (*Host).cmdExecute,
	})
	root.add(&command{
		name:  "load",
		brief: "Load an S-record file",
		description: "Load the contents of a Motorola S-record file into the" +
			" emulated system's memory and set the program counter to the" +
			" file's start address.",
		usage:   "load <filename>",
		handler: (*Host).cmdLoad,
	})

	// Memory commands
	me := root.subtree("memory", "Memory commands")
	me.add(&command{
		name:  "dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		usage:   "memory dump [<address>] [<bytes>]",
		handler: (*Host).cmdMemoryDump,
	})
	me.add(&command{
		name:  "set",
		brief: "Set memory at address",
		description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values. You may use an expression for each" +
			" byte value.",
		usage:   "memory set <address> <byte> [<byte> ...]",
		handler: (*Host).cmdMemorySet,
	})
	me.add(&command{
		name:  "copy",
		brief: "Copy memory",
		description: "Copy memory from one range of addresses to another. You" +
			" must specify the destination address, the first byte of the source" +
			" address, and the last byte of the source address.",
		usage:   "memory copy <dst addr> <src addr begin> <src addr end>",
		handler: (*Host).cmdMemoryCopy,
	})

	root.add(&command{
		name:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		handler:     (*Host).cmdQuit,
	})
	root.add(&command{
		name:  "register",
		brief: "View or change register values",
		description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's condition" +
			" code flags. Allowed register names include A, B, D, X, Y, U, S, PC," +
			" DP and CC. Allowed flag names include E (Entire), F (FIRQ mask)," +
			" H (Half carry), I (IRQ mask), N (Sign), Z (Zero), V (Overflow)" +
			" and C (Carry).",
		usage:   "register [<name> <value>]",
		handler: (*Host).cmdRegister,
	})
	root.add(&command{
		name:  "reset",
		brief: "Reset the CPU",
		description: "Reset the CPU, loading the program counter from the" +
			" reset vector at $FFFE, or from the address given.",
		usage:   "reset [<address>]",
		handler: (*Host).cmdReset,
	})
	root.add(&command{
		name:  "run",
		brief: "Run the CPU",
		description: "Run the CPU until a breakpoint is hit, the program" +
			" exits or until the user types Ctrl-C. An optional address" +
			" sets the program counter first.",
		usage:   "run [<address>]",
		handler: (*Host).cmdRun,
	})
	root.add(&command{
		name:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		usage:   "set [<var> <value>]",
		handler: (*Host).cmdSet,
	})

	// Step commands
	st := root.subtree("step", "Step the debugger")
	st.add(&command{
		name:  "in",
		brief: "Step into next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step into the subroutine." +
			" The number of steps may be specified as an option.",
		usage:   "step in [<count>]",
		handler: (*Host).cmdStepIn,
	})
	st.add(&command{
		name:  "over",
		brief: "Step over next instruction",
		description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step over the subroutine." +
			" The number of steps may be specified as an option.",
		usage:   "step over [<count>]",
		handler: (*Host).cmdStepOver,
	})
	st.add(&command{
		name:  "out",
		brief: "Step out of the current subroutine",
		description: "Step the CPU until it executes an RTS or RTI" +
			" instruction. This has the effect of stepping until the" +
			" currently running subroutine has returned.",
		usage:   "step out",
		handler: (*Host).cmdStepOut,
	})

	// Add command shortcuts.
	t := root.tree
	t.AddShortcut("b", "breakpoint")
	t.AddShortcut("bp", "breakpoint")
	t.AddShortcut("ba", "breakpoint add")
	t.AddShortcut("br", "breakpoint remove")
	t.AddShortcut("bl", "breakpoint list")
	t.AddShortcut("be", "breakpoint enable")
	t.AddShortcut("bd", "breakpoint disable")
	t.AddShortcut("d", "disassemble")
	t.AddShortcut("db", "databreakpoint")
	t.AddShortcut("dbp", "databreakpoint")
	t.AddShortcut("dbl", "databreakpoint list")
	t.AddShortcut("dba", "databreakpoint add")
	t.AddShortcut("dbr", "databreakpoint remove")
	t.AddShortcut("dbe", "databreakpoint enable")
	t.AddShortcut("dbd", "databreakpoint disable")
	t.AddShortcut("e", "evaluate")
	t.AddShortcut("m", "memory dump")
	t.AddShortcut("mc", "memory copy")
	t.AddShortcut("ms", "memory set")
	t.AddShortcut("r", "register")
	t.AddShortcut("s", "step over")
	t.AddShortcut("si", "step in")
	t.AddShortcut("so", "step out")
	t.AddShortcut("?", "help")
	t.AddShortcut(".", "register")

	cmds = root
}
