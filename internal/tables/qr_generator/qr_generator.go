package qr

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"

	"ms-billsplit/internal/models"
)

// Generator produces the patron entry URL for a table and its QR code
// image. Scanning the code lands the patron on the table's active bill.
type Generator struct {
	baseURL string
}

func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/")}
}

// EntryURL is what gets printed on the table tent:
// <base>/t/<number>/<restaurant-slug>.
func (g *Generator) EntryURL(number int, restaurantName string) string {
	return fmt.Sprintf("%s/t/%d/%s", g.baseURL, number, Slug(restaurantName))
}

// Generate renders the table's entry URL as a 256px PNG.
func (g *Generator) Generate(table models.Table) ([]byte, error) {
	return qrcode.Encode(table.QRCode, qrcode.Medium, 256)
}

// Slug lowercases a restaurant name and folds runs of non-alphanumerics
// into single dashes, so names survive inside a URL path segment.
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
