// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

var (
	errSettingRange = errors.New("value out of range")
	errSettingKind  = errors.New("setting has an unsupported type")
)

type settings struct {
	HexMode         bool   `doc:"hexadecimal input mode"`
	EchoInput       bool   `doc:"echo console input"`
	MemDumpBytes    int    `doc:"default number of memory bytes to dump"`
	DisasmLines     int    `doc:"default number of lines to disassemble"`
	MaxStepLines    int    `doc:"max lines to disassemble when stepping"`
	RunBudget       int    `doc:"instructions per run command (0 = no limit)"`
	NextDisasmAddr  uint16 `doc:"address of next disassembly"`
	NextMemDumpAddr uint16 `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		MemDumpBytes: 64,
		DisasmLines:  10,
		MaxStepLines: 20,
	}
}

// A setting describes one field of the settings struct.
type setting struct {
	name  string
	doc   string
	index []int
	kind  reflect.Kind
}

var (
	settingsIndex = prefixtree.New[*setting]()
	settingsList  []*setting
)

func init() {
	for _, f := range reflect.VisibleFields(reflect.TypeFor[settings]()) {
		st := &setting{
			name:  f.Name,
			doc:   f.Tag.Get("doc"),
			index: f.Index,
			kind:  f.Type.Kind(),
		}
		settingsList = append(settingsList, st)
		settingsIndex.Add(strings.ToLower(f.Name), st)
	}
}

func (s *settings) field(st *setting) reflect.Value {
	return reflect.ValueOf(s).Elem().FieldByIndex(st.index)
}

// Display writes every setting with its current value and description.
func (s *settings) Display(w io.Writer) {
	for _, st := range settingsList {
		v := s.field(st)

		var value string
		if st.kind == reflect.Uint16 {
			value = fmt.Sprintf("$%04X", v.Uint())
		} else {
			value = fmt.Sprint(v.Interface())
		}

		line := fmt.Sprintf("    %-16s %s", st.name, value)
		fmt.Fprintf(w, "%-28s (%s)\n", line, st.doc)
	}
}

// Update stores 'value' in the setting named by a unique prefix of 'key'
// and returns the setting's full name. Numeric values are evaluated by
// 'eval'.
func (s *settings) Update(key, value string, eval func(expr string) (int64, error)) (string, error) {
	st, err := settingsIndex.FindValue(strings.ToLower(key))
	if err != nil {
		return "", fmt.Errorf("setting '%s': %w", key, err)
	}

	v := s.field(st)
	switch st.kind {
	case reflect.Bool:
		b, err := stringToBool(value)
		if err != nil {
			return "", err
		}
		v.SetBool(b)

	case reflect.Int:
		n, err := eval(value)
		if err != nil {
			return "", err
		}
		if n < 0 {
			return "", errSettingRange
		}
		v.SetInt(n)

	case reflect.Uint16:
		n, err := eval(value)
		if err != nil {
			return "", err
		}
		if n < 0 || n > 0xffff {
			return "", errSettingRange
		}
		v.SetUint(uint64(n))

	default:
		return "", errSettingKind
	}

	return st.name, nil
}
