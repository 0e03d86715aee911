/*
Copyright © 2025 Logicos Software

inspect.go implements info, print, hex, property and the comparisons.
*/
package commands

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"pkipipe/internal/engine"
	"pkipipe/internal/errs"
	"pkipipe/internal/value"
)

// maxInfoDepth bounds how far info descends into nested property maps.
const maxInfoDepth = 3

func runInfo(ctx *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Peek("info")
	if err != nil {
		return err
	}
	out := ctx.Output()
	if _, err := fmt.Fprintln(out, v.Describe()); err != nil {
		return err
	}
	node := propertyTree(v, 0, make(map[value.Value]bool))
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return nil
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return errs.External("cannot render properties", err)
	}
	return enc.Close()
}

// propertyTree renders v as a YAML node: scalars as text, sequences as
// lists, everything else as the mapping of its properties. Values seen on
// the current path, and values below maxInfoDepth, render as their
// description.
func propertyTree(v value.Value, depth int, path map[value.Value]bool) *yaml.Node {
	if text, ok := value.Text(v); ok {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: text}
	}
	if depth >= maxInfoDepth || path[v] {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v.Describe()}
	}
	path[v] = true
	defer delete(path, v)

	if seq, ok := v.(*value.Sequence); ok {
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, m := range seq.Members() {
			n.Content = append(n.Content, propertyTree(m, depth+1, path))
		}
		return n
	}

	props := v.Properties()
	if props.Len() == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v.Describe()}
	}
	n := &yaml.Node{Kind: yaml.MappingNode}
	props.Each(func(key string, pv value.Value) {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			propertyTree(pv, depth+1, path))
	})
	return n
}

func runPrint(ctx *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Peek("print")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		return err
	}
	if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteByte('\n')
	}
	_, err = io.Copy(ctx.Output(), &buf)
	return err
}

func runHex(ctx *engine.Context, st *engine.Stack, _ []string) error {
	v, err := st.Peek("hex")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		return err
	}
	_, err = io.WriteString(ctx.Output(), hex.Dump(buf.Bytes()))
	return err
}

func runProperty(_ *engine.Context, st *engine.Stack, args []string) error {
	v, err := st.Pop("property")
	if err != nil {
		return err
	}
	found := make([]value.Value, 0, len(args))
	for _, path := range args {
		pv, ok := v.Properties().Lookup(path)
		if !ok {
			e := errs.BadArgument("%s has no property %q", v.Describe(), path)
			if keys := v.Properties().Keys(); len(keys) > 0 {
				e.Hint = "Available properties: " + strings.Join(keys, ", ")
			}
			return e
		}
		found = append(found, pv)
	}
	if len(found) == 1 {
		st.Push(found[0])
		return nil
	}
	st.Push(value.NewSequence(v.Source().Derive("properties"), found...))
	return nil
}

func compare(name string, want bool) engine.CommandFunc {
	return func(_ *engine.Context, st *engine.Stack, args []string) error {
		v, err := st.Pop(name)
		if err != nil {
			return err
		}
		st.Push(value.NewBoolean(v.Source().Derive(name), v.EqualString(args[0]) == want))
		return nil
	}
}
