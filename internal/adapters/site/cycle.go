package site

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

const (
	alertListPath = "/enclosgestion1.php?t=0&v=0"
	stockPath     = "/bureau4.php"

	// The site's alert links carry a trailing "& #less" tail. The fragment
	// never goes over the wire and the space must be percent-encoded.
	alertAckSuffix = "&bot=1&%20"
)

// Orchestrator runs one maintenance cycle: login, acknowledge flagged
// enclosures, read the five stock levels, apply the replenishment policy and
// submit the restock forms. Steps are strictly sequential and any failure is
// terminal for the cycle; actions already submitted stay applied.
type Orchestrator struct {
	baseURL   string
	pacer     *Pacer
	events    ports.EventSink
	newClient func(string) (*Client, error)
}

var _ ports.CycleRunner = (*Orchestrator)(nil)

func NewOrchestrator(baseURL string, pacer *Pacer, events ports.EventSink) *Orchestrator {
	if pacer == nil {
		pacer = NewPacer(0, 0)
	}
	if events == nil {
		events = ports.NopSink{}
	}

	return &Orchestrator{
		baseURL:   strings.TrimRight(baseURL, "/"),
		pacer:     pacer,
		events:    events,
		newClient: NewClient,
	}
}

// Run executes one cycle and always returns a summary; errors are folded
// into summary.Errors and never propagate. Each run authenticates from an
// empty cookie jar.
func (o *Orchestrator) Run(ctx context.Context, account, secret string) domain.CycleSummary {
	summary := domain.CycleSummary{StartedAt: time.Now()}

	err := o.run(ctx, account, secret, &summary)
	summary.FinishedAt = time.Now()
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		o.events.Emit(ports.LevelError, err.Error())
		return summary
	}

	summary.OK = true
	return summary
}

func (o *Orchestrator) run(ctx context.Context, account, secret string, summary *domain.CycleSummary) error {
	client, err := o.newClient(o.baseURL)
	if err != nil {
		return fmt.Errorf("create session client: %w", err)
	}

	o.events.Emit(ports.LevelInfo, fmt.Sprintf("logging in as %s", account))
	if err := client.Login(ctx, account, secret); err != nil {
		return err
	}

	if err := o.scanAlerts(ctx, client); err != nil {
		return err
	}

	entries, err := o.fetchStocks(ctx, client)
	if err != nil {
		return err
	}

	var actions []domain.ReplenishAction
	for _, entry := range entries {
		amount, err := domain.Decide(entry)
		if err != nil {
			return err
		}
		if amount == 0 {
			summary.ItemsSafe = append(summary.ItemsSafe, domain.SafeItem{
				Kind:         entry.Kind,
				Level:        entry.Level,
				MinSafeLevel: entry.MinSafeLevel(),
			})
			o.events.Emit(ports.LevelInfo, fmt.Sprintf("%s: %d in stock, floor %d, nothing to buy",
				entry.Kind, entry.Level, entry.MinSafeLevel()))
			continue
		}
		actions = append(actions, domain.ReplenishAction{Kind: entry.Kind, Amount: amount})
	}

	for _, action := range actions {
		o.pacer.Wait()
		if err := o.submitRestock(ctx, client, action); err != nil {
			return err
		}
		summary.ItemsAdded = append(summary.ItemsAdded, action)
		o.events.Emit(ports.LevelInfo, fmt.Sprintf("%s: bought %d", action.Kind, action.Amount))
	}

	return nil
}

// scanAlerts fetches the alert listing and visits each flagged route, which
// acknowledges the alert site-side.
func (o *Orchestrator) scanAlerts(ctx context.Context, client *Client) error {
	doc, err := client.FetchDocument(ctx, alertListPath)
	if err != nil {
		return err
	}
	if !statusOK(doc.StatusCode) {
		return &domain.UnexpectedStatusError{URL: alertListPath, StatusCode: doc.StatusCode}
	}

	routes, err := ExtractAlertRoutes(doc.Markup, o.baseURL)
	if err != nil {
		return err
	}
	o.events.Emit(ports.LevelInfo, fmt.Sprintf("%d enclosure(s) need attention", len(routes)))

	for _, route := range routes {
		o.pacer.Wait()
		ack, err := client.FetchDocument(ctx, route+alertAckSuffix)
		if err != nil {
			return err
		}
		if !statusOK(ack.StatusCode) {
			// The site never reports acknowledgement outcomes; a non-2xx here
			// is logged but does not abort the cycle.
			o.events.Emit(ports.LevelWarn, fmt.Sprintf("alert %s answered %d", route, ack.StatusCode))
		}
	}

	return nil
}

func (o *Orchestrator) fetchStocks(ctx context.Context, client *Client) ([]domain.StockEntry, error) {
	doc, err := client.FetchDocument(ctx, stockPath)
	if err != nil {
		return nil, err
	}
	if !statusOK(doc.StatusCode) {
		return nil, &domain.UnexpectedStatusError{URL: stockPath, StatusCode: doc.StatusCode}
	}

	food, err := ExtractFoodStock(doc.Markup)
	if err != nil {
		return nil, err
	}

	entries := []domain.StockEntry{food}
	for column, kind := range domain.BoutiqueKinds {
		entry, err := ExtractBoutiqueStock(doc.Markup, column, kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (o *Orchestrator) submitRestock(ctx context.Context, client *Client, action domain.ReplenishAction) error {
	fields, err := restockFields(action)
	if err != nil {
		return err
	}

	status, err := client.SubmitForm(ctx, stockPath, fields)
	if err != nil {
		return err
	}
	if !statusOK(status) {
		return &domain.UnexpectedStatusError{URL: stockPath, StatusCode: status}
	}

	return nil
}

// restockFields builds the site's form fields for one purchase. Field names
// and the type_stock discriminators are part of the wire contract.
func restockFields(action domain.ReplenishAction) (url.Values, error) {
	amount := strconv.Itoa(action.Amount)

	switch action.Kind {
	case domain.StockFood:
		return url.Values{"add_stock": {amount}, "button": {"Envoyer"}}, nil
	case domain.StockGifts:
		return url.Values{"nb_stock": {amount}, "type_stock": {"1"}, "button2": {"Acheter"}}, nil
	case domain.StockFries:
		return url.Values{"nb_stock": {amount}, "type_stock": {"2"}, "button3": {"Acheter"}}, nil
	case domain.StockDrinks:
		return url.Values{"nb_stock": {amount}, "type_stock": {"3"}, "button4": {"Acheter"}}, nil
	case domain.StockIceCream:
		return url.Values{"nb_stock": {amount}, "type_stock": {"4"}, "button5": {"Acheter"}}, nil
	}

	return nil, fmt.Errorf("no restock form for stock kind %q", action.Kind)
}

func statusOK(status int) bool {
	return status >= 200 && status < 300
}
