package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

type Result struct {
	Document *libopenapi.DocumentModel[v3.Document]
	Version  string
	RawData  []byte
}

// LoadFile parses a local copy of an API description. The copy is cached the
// same way as a fetched one, so it must be self-contained: references to
// other files are not followed.
func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading api description %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses a description fetched over the network. Only internal
// references are followed.
func LoadBytes(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("parsing OpenAPI document: empty document")
	}

	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %s (only 3.x supported)", version)
	}

	model, err := doc.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}

	return &Result{
		Document: model,
		Version:  version,
		RawData:  data,
	}, nil
}
