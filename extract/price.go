package extract

import (
	"regexp"

	"github.com/menuwatch/menuwatch/models"
)

// pricePattern matches a currency-symbol-prefixed amount like "$11.99" or
// "£4". Both symbols appear on the target platforms depending on region.
var pricePattern = regexp.MustCompile(`[£$](\d+(?:\.\d{2})?)`)

// caloriePattern matches the calorie annotation some platforms render
// instead of a description, e.g. "540 Cal".
var caloriePattern = regexp.MustCompile(`(\d+)\s*Cal`)

// findPrice scans text for the first currency-prefixed amount. Returns an
// explicit zero when no pattern matches; the extractor never fabricates
// a price.
func findPrice(text string) models.Price {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return models.ParsePrice(m[1])
}

// calorieNote turns a calorie annotation into a description fallback,
// e.g. "540 calories". Empty when no annotation is present.
func calorieNote(text string) string {
	m := caloriePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " calories"
}
