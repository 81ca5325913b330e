// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/go6809/cpu"

// A debugHandler is a Host viewed as the receiver of cpu debugger
// notifications, keeping the callbacks off the Host's exported API.
type debugHandler Host

func (d *debugHandler) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	(*Host)(d).onBreakpoint(c, b)
}

func (d *debugHandler) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	(*Host)(d).onDataBreakpoint(c, b)
}
