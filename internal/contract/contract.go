// Package contract loads the OpenAPI document that describes the API host.
package contract

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Route is one operation declared by the document.
type Route struct {
	Method      string
	Path        string
	OperationID string
}

// Contract is a parsed and validated OpenAPI document.
type Contract struct {
	doc *openapi3.T
}

// Load parses the embedded document.
func Load() (*Contract, error) {
	return LoadFromData(document)
}

// LoadFromData parses and validates an OpenAPI document.
func LoadFromData(data []byte) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI document validation failed: %w", err)
	}

	return &Contract{doc: doc}, nil
}

// Document returns the parsed document.
func (c *Contract) Document() *openapi3.T {
	return c.doc
}

// Routes lists every operation sorted by path then method.
func (c *Contract) Routes() []Route {
	paths := c.doc.Paths.Map()
	routes := make([]Route, 0, len(paths))

	for path, item := range paths {
		for method, op := range item.Operations() {
			routes = append(routes, Route{
				Method:      method,
				Path:        path,
				OperationID: op.OperationID,
			})
		}
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// RequireOperation returns an error unless the document declares method on path.
func (c *Contract) RequireOperation(method, path string) error {
	item := c.doc.Paths.Find(path)
	if item == nil {
		return fmt.Errorf("path %s is not declared", path)
	}
	if item.GetOperation(method) == nil {
		return fmt.Errorf("operation %s %s is not declared", method, path)
	}
	return nil
}

// Example returns the JSON example declared for a response. When the media
// type declares none, a skeleton is derived from its schema.
func (c *Contract) Example(method, path string, status int) (any, error) {
	if err := c.RequireOperation(method, path); err != nil {
		return nil, err
	}

	op := c.doc.Paths.Find(path).GetOperation(method)
	if op.Responses == nil {
		return nil, fmt.Errorf("no responses defined for %s %s", method, path)
	}

	response := op.Responses.Status(status)
	if response == nil || response.Value == nil {
		return nil, fmt.Errorf("response %d not found for %s %s", status, method, path)
	}

	media := response.Value.Content.Get("application/json")
	if media == nil {
		return nil, fmt.Errorf("no application/json content for %s %s %d", method, path, status)
	}
	if media.Example != nil {
		return media.Example, nil
	}
	if media.Schema != nil && media.Schema.Value != nil {
		return exampleFromSchema(media.Schema.Value), nil
	}
	return nil, fmt.Errorf("no example or schema for %s %s %d", method, path, status)
}

func exampleFromSchema(schema *openapi3.Schema) any {
	if schema.Example != nil {
		return schema.Example
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}

	switch {
	case schema.Type.Is(openapi3.TypeObject):
		result := make(map[string]any, len(schema.Properties))
		for name, prop := range schema.Properties {
			if prop.Value != nil {
				result[name] = exampleFromSchema(prop.Value)
			}
		}
		return result
	case schema.Type.Is(openapi3.TypeArray):
		if schema.Items != nil && schema.Items.Value != nil {
			return []any{exampleFromSchema(schema.Items.Value)}
		}
		return []any{}
	case schema.Type.Is(openapi3.TypeString):
		return "string"
	case schema.Type.Is(openapi3.TypeNumber):
		return 0.0
	case schema.Type.Is(openapi3.TypeInteger):
		return 0
	case schema.Type.Is(openapi3.TypeBoolean):
		return true
	default:
		return nil
	}
}
