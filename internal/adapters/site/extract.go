package site

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keeperbot/monzoo-keeper/internal/domain"
)

const (
	// Exact inline style the site puts on options needing attention.
	alertColorStyle = "color:#FF0000"

	// Suffix on boutique consumption cells ("-175 par jour").
	consumptionSuffix = "par jour"
)

// ExtractAlertRoutes returns the site-relative routes of every option marked
// with the red "needs attention" style, in document order. No matching
// options is a valid empty result, not an error.
func ExtractAlertRoutes(markup, baseURL string) ([]string, error) {
	doc, err := parseDocument(markup, "alert menu")
	if err != nil {
		return nil, err
	}

	routes := []string{}
	doc.Find("select#jumpMenu option").Each(func(_ int, opt *goquery.Selection) {
		if style, _ := opt.Attr("style"); style != alertColorStyle {
			return
		}
		value, ok := opt.Attr("value")
		if !ok {
			return
		}
		routes = append(routes, strings.TrimPrefix(value, baseURL))
	})

	return routes, nil
}

// ExtractFoodStock reads the food level from the add_stock form and the
// daily consumption from the sibling cell of its enclosing table. The page
// renders consumption as a negative number (used per day); the absolute
// value is taken.
func ExtractFoodStock(markup string) (domain.StockEntry, error) {
	doc, err := parseDocument(markup, "food form")
	if err != nil {
		return domain.StockEntry{}, err
	}

	form := formsWithInput(doc, "add_stock").First()
	if form.Length() == 0 {
		return domain.StockEntry{}, &domain.MalformedPageError{Field: "food form"}
	}

	level, err := parseCount(form.Find("strong").First(), "food stock level")
	if err != nil {
		return domain.StockEntry{}, err
	}

	cell := form.Closest("table").Find("tr").Eq(1).Find("td > table td:nth-child(2) strong").First()
	consumption, err := parseCount(cell, "food daily consumption")
	if err != nil {
		return domain.StockEntry{}, err
	}

	return domain.StockEntry{
		Kind:             domain.StockFood,
		Level:            level,
		DailyConsumption: abs(consumption),
	}, nil
}

// ExtractBoutiqueStock reads one boutique resource by column. The boutique
// forms (the ones carrying an nb_stock field) and the consumption row
// beneath them share the same column order, so both lookups are positional.
func ExtractBoutiqueStock(markup string, column int, kind domain.StockKind) (domain.StockEntry, error) {
	doc, err := parseDocument(markup, string(kind)+" form")
	if err != nil {
		return domain.StockEntry{}, err
	}

	form := formsWithInput(doc, "nb_stock").Eq(column)
	if form.Length() == 0 {
		return domain.StockEntry{}, &domain.MalformedPageError{
			Field: fmt.Sprintf("%s form (column %d)", kind, column),
		}
	}

	level, err := parseCount(form.Find("strong").First(), fmt.Sprintf("%s stock level", kind))
	if err != nil {
		return domain.StockEntry{}, err
	}

	cell := form.Closest("tr").Next().Find("td").Eq(column)
	if cell.Length() == 0 {
		return domain.StockEntry{}, &domain.MalformedPageError{
			Field: fmt.Sprintf("%s consumption cell (column %d)", kind, column),
		}
	}

	consumption, err := parseTrailingCount(cell.Text(), fmt.Sprintf("%s daily consumption", kind))
	if err != nil {
		return domain.StockEntry{}, err
	}

	return domain.StockEntry{
		Kind:             kind,
		Level:            level,
		DailyConsumption: abs(consumption),
	}, nil
}

func parseDocument(markup, field string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &domain.MalformedPageError{Field: field, Reason: err.Error()}
	}
	return doc, nil
}

func formsWithInput(doc *goquery.Document, name string) *goquery.Selection {
	selector := fmt.Sprintf("input[name=%q]", name)
	return doc.Find(`form[action="bureau4.php"]`).FilterFunction(func(_ int, form *goquery.Selection) bool {
		return form.Find(selector).Length() > 0
	})
}

func parseCount(sel *goquery.Selection, field string) (int, error) {
	if sel.Length() == 0 {
		return 0, &domain.MalformedPageError{Field: field}
	}

	text := strings.TrimSpace(sel.Text())
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, &domain.MalformedPageError{Field: field, Reason: fmt.Sprintf("not a number: %q", text)}
	}

	return n, nil
}

// parseTrailingCount strips the "par jour" suffix and parses the last
// whitespace-separated token ("Consommation : -175 par jour" yields -175).
func parseTrailingCount(text, field string) (int, error) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), consumptionSuffix))
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0, &domain.MalformedPageError{Field: field, Reason: "empty cell"}
	}

	last := tokens[len(tokens)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return 0, &domain.MalformedPageError{Field: field, Reason: fmt.Sprintf("not a number: %q", last)}
	}

	return n, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
