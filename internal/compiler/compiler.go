// Package compiler turns a submitted field-description tree into a nested document-schema
// descriptor and flattens an API's top-level resources into independent schema records.
package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// ErrUnknownFieldType is wrapped by a CompilationError raised for an unrecognized type tag.
var ErrUnknownFieldType = errors.New("unknown field type")

// CompilationError identifies the node of the field tree that could not be compiled.
type CompilationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CompilationError) Error() string {
	if e.Path == "" {
		return "compile: " + e.Reason
	}
	return fmt.Sprintf("compile %s: %s", e.Path, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// primitiveTypes resolves a primitive tag to the type stored in the document schema.
var primitiveTypes = map[schema.FieldType]schema.FieldType{
	schema.TypeString:  schema.TypeString,
	schema.TypeNumber:  schema.TypeNumber,
	schema.TypeBoolean: schema.TypeBoolean,
	schema.TypeInteger: schema.TypeNumber,
}

// Compile compiles a single node into {name: descriptor}.
func Compile(node schema.FieldNode) (schema.Field, error) {
	d, err := compileNode(node, joinPath("", node.Name))
	if err != nil {
		return schema.Field{}, err
	}
	return schema.Field{Name: node.Name, Descriptor: d}, nil
}

func compileNode(node schema.FieldNode, path string) (schema.Descriptor, error) {
	if node.Name == "" {
		return schema.Descriptor{}, &CompilationError{Path: path, Reason: "field name is empty"}
	}

	if node.Type == schema.TypeObject {
		if node.Children == nil {
			return schema.Descriptor{}, &CompilationError{Path: path, Reason: "object field requires a children list"}
		}
		fields, err := compileChildren(node.Children, path)
		if err != nil {
			return schema.Descriptor{}, err
		}
		if node.IsArray {
			return schema.ArrayOf(schema.Object(fields)), nil
		}
		return schema.Object(fields), nil
	}

	resolved, ok := primitiveTypes[node.Type]
	if !ok {
		return schema.Descriptor{}, &CompilationError{
			Path:   path,
			Reason: fmt.Sprintf("unknown field type %q", node.Type),
			Err:    ErrUnknownFieldType,
		}
	}
	if node.Children != nil {
		return schema.Descriptor{}, &CompilationError{
			Path:   path,
			Reason: fmt.Sprintf("%s field cannot have children", node.Type),
		}
	}

	// Enum and required constraints are only carried by plain scalars; an array of
	// primitives keeps the bare element type.
	if node.IsArray {
		return schema.ArrayOf(schema.Scalar(resolved)), nil
	}

	d := schema.Scalar(resolved)
	if len(node.EnumValues) > 0 {
		d.Enum = append([]any(nil), node.EnumValues...)
	}
	d.Required = node.Required
	return d, nil
}

func compileChildren(children []schema.FieldNode, path string) (schema.Fields, error) {
	fields := make(schema.Fields, 0, len(children))
	seen := make(map[string]struct{}, len(children))
	for _, child := range children {
		childPath := joinPath(path, child.Name)
		if _, dup := seen[child.Name]; dup {
			return nil, &CompilationError{Path: childPath, Reason: "duplicate field name"}
		}
		seen[child.Name] = struct{}{}

		d, err := compileNode(child, childPath)
		if err != nil {
			return nil, err
		}
		fields = append(fields, schema.Field{Name: child.Name, Descriptor: d})
	}
	return fields, nil
}

// CompileResourceSet compiles the root node of an API and returns one schema record per
// top-level resource, stamped with now.
func CompileResourceSet(apiName string, root schema.FieldNode, now time.Time) (map[string]schema.ResourceSchema, error) {
	if root.Name != apiName {
		return nil, &CompilationError{
			Path:   root.Name,
			Reason: fmt.Sprintf("root field %q does not match api %q", root.Name, apiName),
		}
	}
	if root.Type != schema.TypeObject || root.IsArray {
		return nil, &CompilationError{Path: root.Name, Reason: "api root must be a single object"}
	}

	compiled, err := Compile(root)
	if err != nil {
		return nil, err
	}

	resources := make(map[string]schema.ResourceSchema, len(compiled.Descriptor.Fields))
	for _, f := range compiled.Descriptor.Fields {
		var resourceSchema schema.Descriptor
		switch f.Descriptor.Kind {
		case schema.KindArray:
			if f.Descriptor.Elem == nil || f.Descriptor.Elem.Kind != schema.KindObject {
				return nil, &CompilationError{
					Path:   joinPath(root.Name, f.Name),
					Reason: "resource must be an object or an array of objects",
				}
			}
			resourceSchema = *f.Descriptor.Elem
		case schema.KindObject:
			resourceSchema = f.Descriptor
		default:
			return nil, &CompilationError{
				Path:   joinPath(root.Name, f.Name),
				Reason: "resource must be an object or an array of objects",
			}
		}

		resources[f.Name] = schema.ResourceSchema{
			Schema:    resourceSchema,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return resources, nil
}

func joinPath(parent, name string) string {
	if name == "" {
		return parent
	}
	if parent == "" {
		return name
	}
	return parent + "." + name
}
