package parse

import (
	"bytes"
	"fmt"
	"reflect"
)

// PprintAST pretty-prints the AST rooted at n. Position information, parent
// links and leaf nodes like whitespaces are omitted.
func PprintAST(n Node) string {
	var b bytes.Buffer
	pprintAST(&b, "", toAST(n))
	return b.String()
}

// An intermediate representation for nodes, keeping information relevant in the
// AST.
type ast struct {
	name   string
	fields []*astField
}

type astField struct {
	name   string
	scalar interface{}
	node   *ast
	nodes  []*ast
}

var (
	nodeTyp        = reflect.TypeOf((*Node)(nil)).Elem()
	commandDataTyp = reflect.TypeOf((*CommandData)(nil)).Elem()
)

func toAST(n Node) *ast {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil
	}
	return structToAST(reflect.ValueOf(n).Elem())
}

// Converts a struct value, either a node or the variant part of a command.
func structToAST(nVal reflect.Value) *ast {
	nTyp := nVal.Type()
	a := &ast{name: nTyp.Name()}

	for i := 0; i < nVal.NumField(); i++ {
		if nTyp.Field(i).PkgPath != "" || nTyp.Field(i).Anonymous {
			// Skip unexported and embedded fields
			continue
		}

		f := &astField{name: nTyp.Field(i).Name}

		fieldTyp := nTyp.Field(i).Type
		fieldVal := nVal.Field(i)
		field := fieldVal.Interface()

		switch {
		case fieldTyp == commandDataTyp:
			if !fieldVal.IsNil() {
				f.node = structToAST(fieldVal.Elem())
			}
		case fieldTyp.AssignableTo(nodeTyp):
			f.node = toAST(field.(Node))
		case fieldTyp.Kind() == reflect.Slice && fieldTyp.Elem().AssignableTo(nodeTyp):
			// []T where T < Node
			nodes := make([]*ast, fieldVal.Len())
			for j := 0; j < fieldVal.Len(); j++ {
				nodes[j] = toAST(fieldVal.Index(j).Interface().(Node))
			}
			f.nodes = nodes
		default:
			f.scalar = field
		}

		a.fields = append(a.fields, f)
	}
	return a
}

func pprintAST(buf *bytes.Buffer, indent string, a *ast) {
	if a == nil {
		buf.WriteString("nil")
		return
	}

	buf.WriteString(a.name)

	indent1 := indent + "  "
	indent2 := indent1 + "  "

	for _, f := range a.fields {
		buf.WriteString("\n" + indent1 + "." + f.name + " = ")
		switch {
		case f.scalar != nil:
			switch s := f.scalar.(type) {
			case string, []string:
				fmt.Fprintf(buf, "%q", s)
			default:
				fmt.Fprint(buf, s)
			}
		case f.node != nil:
			pprintAST(buf, indent1, f.node)
		case f.nodes != nil:
			for _, node := range f.nodes {
				buf.WriteString("\n" + indent2)
				pprintAST(buf, indent2, node)
			}
		default:
			buf.WriteString("nil")
		}
	}
}
