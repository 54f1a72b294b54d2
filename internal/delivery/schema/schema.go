// Package schema checks the shape of ad request bodies before they reach
// the domain validators.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var files embed.FS

const (
	CreateAd = "ad_create.json"
	PatchAd  = "ad_patch.json"
)

const baseURL = "mem://classifieds/schemas/"

var ErrMalformed = errors.New("request body is not valid JSON")

// Error is a shape violation at one location of the body.
type Error struct {
	Location string
	Message  string
}

func (e *Error) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	names := []string{CreateAd, PatchAd}
	for _, name := range names {
		data, err := files.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(baseURL+name, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		s, err := compiler.Compile(baseURL + name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// MustNew is New for package initialisation and tests.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks body against the named schema. A schema violation is
// returned as *Error describing the first failing location.
func (v *Validator) Validate(name string, body []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema %q not found", name)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := s.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return leaf(verr)
		}
		return err
	}
	return nil
}

func leaf(verr *jsonschema.ValidationError) *Error {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return &Error{
		Location: strings.TrimPrefix(verr.InstanceLocation, "/"),
		Message:  verr.Message,
	}
}
