package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  Price
		want int64
	}{
		{"plain digits", "1200", 1200},
		{"rupee with thousands separator", "₹1,200", 1200},
		{"decimal point is dropped", "₹1,299.50", 129950},
		{"dollar sign and spaces", "$ 45", 45},
		{"empty", "", 0},
		{"no digits at all", "free", 0},
		{"overflow", "99999999999999999999999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.raw))
		})
	}
}

func TestPrice_UnmarshalJSON_NumberAndString(t *testing.T) {
	var p struct {
		A Price `json:"a"`
		B Price `json:"b"`
		C Price `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1200,"b":"₹1,200","c":null}`), &p))

	assert.Equal(t, Price("1200"), p.A)
	assert.Equal(t, Price("₹1,200"), p.B)
	assert.Equal(t, Price(""), p.C)
	assert.Equal(t, int64(1200), p.A.Amount())
	assert.Equal(t, int64(1200), p.B.Amount())
}

func TestPrice_UnmarshalJSON_RejectsObjects(t *testing.T) {
	var p Price
	err := json.Unmarshal([]byte(`{"amount":5}`), &p)
	assert.Error(t, err)
}

func TestPrice_MarshalJSON_KeepsShape(t *testing.T) {
	out, err := json.Marshal(struct {
		A Price `json:"a"`
		B Price `json:"b"`
	}{A: "1200", B: "₹1,200"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1200,"b":"₹1,200"}`, string(out))
}

func TestPrice_UnmarshalYAML(t *testing.T) {
	var p struct {
		A Price `yaml:"a"`
		B Price `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 999\nb: \"₹2,500\"\n"), &p))
	assert.Equal(t, int64(999), p.A.Amount())
	assert.Equal(t, int64(2500), p.B.Amount())
}

func TestProduct_SearchFields(t *testing.T) {
	p := Product{
		Title:       "Red Silk Dress",
		Description: "Evening wear",
		Color:       "red",
		Tags:        []string{"party", "women"},
		Keywords:    []string{"gown"},
	}
	assert.Equal(t,
		[]string{"Red Silk Dress", "Evening wear", "red", "party", "women", "gown"},
		p.SearchFields(),
	)
}

func TestProduct_HasSize(t *testing.T) {
	p := Product{Sizes: []string{"S", "M", "L"}}
	assert.True(t, p.HasSize("M"))
	assert.False(t, p.HasSize("XL"))
}
