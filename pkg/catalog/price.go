package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Price is the raw text of a price exactly as the document store sent it.
// Both numbers (1200) and currency strings ("₹1,200") are accepted.
type Price string

// UnmarshalJSON accepts a JSON number or a JSON string.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode price: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// MarshalJSON writes numeric prices as JSON numbers and everything else as strings.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.isNumeric() {
		return []byte(p), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalYAML accepts any scalar.
func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("decode price: line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*p = ""
		return nil
	}
	*p = Price(node.Value)
	return nil
}

// Amount returns ParsePrice(p).
func (p Price) Amount() int64 {
	return ParsePrice(p)
}

func (p Price) isNumeric() bool {
	s := string(p)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	return json.Valid([]byte(s))
}

// ParsePrice extracts an integer amount from a raw price by keeping only its
// ASCII digits. Separators, currency symbols and the decimal point are all
// dropped, so "₹1,299.50" parses to 129950. A price with no digits, or one
// whose digits overflow int64, parses to 0.
func ParsePrice(raw Price) int64 {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
