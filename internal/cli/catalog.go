package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/utafrali/storefront/pkg/catalog"
)

// catalogFile is the wrapped layout; a bare list of products is accepted too.
type catalogFile struct {
	Products []catalog.Product `json:"products" yaml:"products"`
}

// loadCatalog reads the product list at path. Files ending in .yaml or .yml
// are YAML, everything else JSON.
func loadCatalog(path string) ([]catalog.Product, error) {
	if path == "" {
		return nil, fmt.Errorf("no catalog given: pass --catalog or set STOREFRONT_CATALOG")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var products []catalog.Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		products, err = decodeYAMLCatalog(data)
	default:
		products, err = decodeJSONCatalog(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return products, nil
}

func decodeJSONCatalog(data []byte) ([]catalog.Product, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var products []catalog.Product
		err := json.Unmarshal(data, &products)
		return products, err
	}
	var f catalogFile
	err := json.Unmarshal(data, &f)
	return f.Products, err
}

func decodeYAMLCatalog(data []byte) ([]catalog.Product, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var products []catalog.Product
		err := node.Content[0].Decode(&products)
		return products, err
	}
	var f catalogFile
	err := node.Content[0].Decode(&f)
	return f.Products, err
}

func findProduct(products []catalog.Product, id string) (catalog.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}
