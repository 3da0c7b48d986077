// Package contract serves the embedded OpenAPI description of the HTTP API
// and validates request bodies against it by operationId.
package contract

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/pitabwire/shinsei/model"
)

//go:embed openapi.yaml
var document []byte

// Operation is one indexed API operation.
type Operation struct {
	ID           string
	Method       string
	PathTemplate string
	RequestBody  *openapi3.RequestBody
}

// Contract is the loaded API description.
type Contract struct {
	doc        *openapi3.T
	operations map[string]Operation
}

// Load parses and validates the embedded document and indexes its
// operations.
func Load() (*Contract, error) {
	return load(document)
}

func load(data []byte) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: parsing: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("contract: validating: %w", err)
	}

	c := &Contract{doc: doc, operations: make(map[string]Operation)}
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				continue
			}
			var body *openapi3.RequestBody
			if op.RequestBody != nil && op.RequestBody.Value != nil {
				body = op.RequestBody.Value
			}
			c.operations[op.OperationID] = Operation{
				ID:           op.OperationID,
				Method:       method,
				PathTemplate: path,
				RequestBody:  body,
			}
		}
	}
	return c, nil
}

// Document returns the raw YAML document.
func Document() []byte {
	return document
}

// Version returns the API version.
func (c *Contract) Version() string {
	return c.doc.Info.Version
}

// Operation returns the operation with the given id.
func (c *Contract) Operation(id string) (Operation, bool) {
	op, ok := c.operations[id]
	return op, ok
}

// OperationIDs returns all operation ids, sorted.
func (c *Contract) OperationIDs() []string {
	ids := make([]string, 0, len(c.operations))
	for id := range c.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Decode validates a JSON request body against the operation's schema and
// then decodes it into dst. Failures are BAD_REQUEST envelopes with one
// detail per schema violation.
func (c *Contract) Decode(operationID string, data []byte, dst any) error {
	op, ok := c.operations[operationID]
	if !ok {
		return fmt.Errorf("contract: unknown operation %q", operationID)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return model.NewBadRequestError("Request body is not valid JSON")
	}
	if details := validate(op, generic); len(details) > 0 {
		ee := model.NewBadRequestError("Request body does not match the API contract")
		ee.Details = details
		return ee
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return model.NewBadRequestError("Request body could not be decoded")
	}
	return nil
}

func validate(op Operation, body any) []model.FieldError {
	if op.RequestBody == nil {
		return nil
	}
	media := op.RequestBody.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	err := media.Schema.Value.VisitJSON(body, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	var out []model.FieldError
	collect(err, &out)
	return out
}

func collect(err error, out *[]model.FieldError) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			collect(e, out)
		}
		return
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		*out = append(*out, model.FieldError{
			Field:   strings.Join(se.JSONPointer(), "."),
			Code:    "SCHEMA_" + strings.ToUpper(se.SchemaField),
			Message: se.Reason,
		})
		return
	}
	*out = append(*out, model.FieldError{Code: "SCHEMA", Message: err.Error()})
}
