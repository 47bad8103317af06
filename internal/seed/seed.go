// Package seed generates a deterministic apparel catalog for local
// development and load tests, and pushes it into the search service.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// MaxBatch is the largest batch the search service's bulk endpoint accepts.
const MaxBatch = 500

// DefaultSeed keeps re-runs producing the same catalog.
const DefaultSeed = 42

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://storefront.local/products"))

type category struct {
	tag    string
	weight float64
	types  []string
	sizes  []string
}

var categories = []category{
	{"dresses", 0.25, []string{"Maxi Dress", "Midi Dress", "Wrap Dress", "Shirt Dress"}, []string{"XS", "S", "M", "L", "XL"}},
	{"kurtis", 0.20, []string{"Kurti", "Anarkali Kurti", "A-Line Kurti", "Straight Kurti"}, []string{"S", "M", "L", "XL", "XXL"}},
	{"sarees", 0.15, []string{"Saree", "Banarasi Saree", "Chiffon Saree", "Linen Saree"}, []string{"Free Size"}},
	{"tops", 0.15, []string{"Top", "Blouse", "Tunic", "Shirt"}, []string{"XS", "S", "M", "L", "XL"}},
	{"bottoms", 0.10, []string{"Palazzo", "Trousers", "Skirt", "Jeans"}, []string{"26", "28", "30", "32", "34"}},
	{"dupattas", 0.10, []string{"Dupatta", "Stole", "Scarf"}, []string{"Free Size"}},
	{"footwear", 0.05, []string{"Juttis", "Sandals", "Sneakers", "Kolhapuris"}, []string{"36", "37", "38", "39", "40", "41"}},
}

var prefixes = []string{
	"Floral", "Printed", "Embroidered", "Solid", "Striped",
	"Block Print", "Chikankari", "Pleated", "Tie-Dye", "Sequinned",
	"Mirror Work", "Bandhani", "Ikat", "Polka Dot", "Zari",
}

var colors = []string{
	"Black", "Navy", "Maroon", "Ivory", "Pink",
	"Grey", "Olive", "Mustard", "Teal", "Beige",
	"Red", "Green", "Brown", "Cream", "Indigo",
	"Peach", "Mint", "Rust", "Lavender", "White",
}

var materials = []string{"Cotton", "Silk", "Linen", "Rayon", "Georgette", "Chiffon", "Crepe", "Velvet"}

var seasons = []string{"summer", "festive", "winter", "all season"}

var descriptions = []string{
	"An easy %s for everyday wear, cut from breathable fabric that holds its shape wash after wash.",
	"This %s pairs a relaxed fit with fine detailing. Dress it up for evenings or keep it simple for the day.",
	"A wardrobe staple: the %s in a flattering silhouette with a soft hand feel.",
	"Handcrafted %s finished by artisans. Each piece carries small variations in print and weave.",
	"%s in a seasonal palette, tailored for comfort and made to layer.",
}

// ProductID returns the stable id of the i-th generated product.
func ProductID(i int) string {
	return uuid.NewSHA1(namespace, []byte("product:"+strconv.Itoa(i))).String()
}

// Generate returns count products. The same count and seed always yield the
// same catalog, ids included. Categories are filled in proportion to their
// weight, the last one taking the remainder.
func Generate(count int, seed int64) []catalog.Product {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	products := make([]catalog.Product, 0, count)

	remaining := count
	for ci, cat := range categories {
		n := int(float64(count) * cat.weight)
		if ci == len(categories)-1 {
			n = remaining
		}
		remaining -= n

		for j := 0; j < n; j++ {
			products = append(products, generateOne(rng, len(products), cat))
		}
	}
	return products
}

func generateOne(rng *rand.Rand, idx int, cat category) catalog.Product {
	prefix := prefixes[rng.Intn(len(prefixes))]
	kind := cat.types[rng.Intn(len(cat.types))]
	color := colors[rng.Intn(len(colors))]
	material := materials[rng.Intn(len(materials))]
	season := seasons[rng.Intn(len(seasons))]
	title := prefix + " " + material + " " + kind

	// MRP between ₹499 and ₹9,899, always ending in 9.
	mrp := int64(rng.Intn(95)+5)*100 - 1
	discount := int64(rng.Intn(5)) * 10
	current := (mrp*(100-discount)/100)/10*10 + 9
	if current > mrp {
		current = mrp
	}

	// Document stores disagree on price encoding; emit both forms.
	currentPrice := catalog.Price(strconv.FormatInt(current, 10))
	if idx%2 == 1 {
		currentPrice = catalog.Price(FormatRupees(current))
	}

	slug := slugify(title + " " + color)
	return catalog.Product{
		ID:           ProductID(idx),
		Title:        title,
		Description:  fmt.Sprintf(descriptions[rng.Intn(len(descriptions))], strings.ToLower(kind)),
		Color:        color,
		Tags:         []string{cat.tag, strings.ToLower(material), season},
		Keywords:     []string{strings.ToLower(kind), strings.ToLower(prefix)},
		Sizes:        append([]string(nil), cat.sizes...),
		Price:        catalog.Price(FormatRupees(mrp)),
		CurrentPrice: currentPrice,
		Img:          "https://cdn.storefront.local/products/" + slug + ".jpg",
		Gallery: []string{
			"https://cdn.storefront.local/products/" + slug + "-2.jpg",
			"https://cdn.storefront.local/products/" + slug + "-3.jpg",
		},
	}
}

// FormatRupees renders an amount the way the storefront prints prices,
// with Indian digit grouping: 129999 becomes "₹1,29,999".
func FormatRupees(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	if len(s) <= 3 {
		return "₹" + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return "₹" + strings.Join(groups, ",") + "," + tail
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Poster issues POST requests. *httpclient.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
}

type bulkResponse struct {
	Data struct {
		Indexed int `json:"indexed"`
	} `json:"data"`
}

// Push sends products to the search service at baseURL in batches of at most
// batchSize (capped at MaxBatch) and returns how many were indexed. It stops
// at the first failed batch.
func Push(ctx context.Context, client Poster, baseURL string, products []catalog.Product, batchSize int, logger *slog.Logger) (int, error) {
	if batchSize <= 0 || batchSize > MaxBatch {
		batchSize = MaxBatch
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/api/v1/search/bulk"

	indexed := 0
	for start := 0; start < len(products); start += batchSize {
		end := min(start+batchSize, len(products))

		body, err := json.Marshal(map[string]any{"products": products[start:end]})
		if err != nil {
			return indexed, fmt.Errorf("encode batch %d-%d: %w", start, end, err)
		}
		resp, err := client.Post(ctx, endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return indexed, fmt.Errorf("push batch %d-%d: %w", start, end, err)
		}
		var out bulkResponse
		if err := httpclient.DecodeJSON(resp, "search", &out); err != nil {
			return indexed, fmt.Errorf("push batch %d-%d: %w", start, end, err)
		}
		indexed += out.Data.Indexed

		logger.DebugContext(ctx, "seed batch indexed",
			slog.Int("from", start),
			slog.Int("to", end),
			slog.Int("indexed", out.Data.Indexed),
		)
	}
	return indexed, nil
}
