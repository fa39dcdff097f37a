// Package ai is the admin assistant: a Gemini chat that answers questions
// about the shop by calling read-only backend tools.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-pos-console/internal/models"
	"go-pos-console/internal/reports"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("assistant is not configured (GEMINI_API_KEY missing)")

// maxToolRounds stops a model that keeps asking for tools.
const maxToolRounds = 5

const modelName = "gemini-2.0-flash-001"

// Backend is what the tools may read.
type Backend interface {
	reports.OrderLister
	SearchProducts(ctx context.Context, keyword string) ([]models.Product, error)
	GetOrder(ctx context.Context, ref string) (*models.OrderDetail, error)
	ListReturns(ctx context.Context, f models.ReturnFilter) (*models.Page[models.ReturnOrder], error)
}

type Agent struct {
	apiKey  string
	backend Backend
	now     func() time.Time
}

func New(apiKey string, backend Backend) *Agent {
	return &Agent{apiKey: apiKey, backend: backend, now: time.Now}
}

// Enabled reports whether an API key was supplied.
func (a *Agent) Enabled() bool { return a != nil && a.apiKey != "" }

var toolset = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "search_products",
				Description: "Search the catalog by name or code. Returns id, name, selling price, original price and stock.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keyword": {Type: genai.TypeString, Description: "Product name or code"},
					},
					Required: []string{"keyword"},
				},
			},
			{
				Name:        "get_order",
				Description: "Get one order with its items and payment by order id or order code.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"order_ref": {Type: genai.TypeString, Description: "Order id or code, e.g. HD0001"},
					},
					Required: []string{"order_ref"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get revenue, order counts and per-cashier totals for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "list_pending_returns",
				Description: "List return requests still waiting to be completed or cancelled.",
			},
		},
	},
}

// Ask sends one question and follows tool calls until the model answers in
// text.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = toolset

	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a retail POS.

	RULES:
	1. PRODUCTS: For price, stock or details of a product, call 'search_products' with its name.
	2. ORDERS: For a specific order, call 'get_order' with the code the user gives.
	3. SALES: For revenue or order counts, call 'get_sales_report'. "Today" means start_date = end_date = today.
	4. RETURNS: For returns waiting on staff, call 'list_pending_returns'.
	5. You can only read data. If asked to change anything, explain that it must be done in the console.

	USER: %s`, a.now().Format("2006-01-02"), message)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}
		var parts []genai.Part
		for _, call := range calls {
			parts = append(parts, genai.FunctionResponse{Name: call.Name, Response: a.execute(ctx, call)})
		}
		resp, err = session.SendMessage(ctx, parts...)
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// execute runs one tool. Failures are reported to the model as an "error"
// field so it can explain them to the user.
func (a *Agent) execute(ctx context.Context, call genai.FunctionCall) map[string]any {
	switch call.Name {
	case "search_products":
		kw, _ := call.Args["keyword"].(string)
		products, err := a.backend.SearchProducts(ctx, kw)
		if err != nil {
			return toolError(err)
		}
		type simpleProduct struct {
			ID            int64  `json:"id"`
			Name          string `json:"name"`
			Stock         int    `json:"stock"`
			SellingPrice  string `json:"selling_price"`
			OriginalPrice string `json:"original_price"`
		}
		list := make([]simpleProduct, 0, len(products))
		for _, p := range products {
			list = append(list, simpleProduct{
				ID: p.ID, Name: p.Name, Stock: p.Quantity,
				SellingPrice: p.SellingPrice.String(), OriginalPrice: p.OriginalPrice.String(),
			})
		}
		return jsonResult("products", list)

	case "get_order":
		ref, _ := call.Args["order_ref"].(string)
		if ref == "" {
			return map[string]any{"error": "order_ref is required"}
		}
		order, err := a.backend.GetOrder(ctx, ref)
		if err != nil {
			return toolError(err)
		}
		return jsonResult("order", order)

	case "get_sales_report":
		startStr, _ := call.Args["start_date"].(string)
		endStr, _ := call.Args["end_date"].(string)
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil {
			return map[string]any{"error": "Dates must be in YYYY-MM-DD format."}
		}
		r, err := reports.Sales(ctx, a.backend, start, end)
		if err != nil {
			return toolError(err)
		}
		return map[string]any{
			"revenue":     r.TotalRevenue.String(),
			"sales_count": r.TotalCount,
			"paid_count":  r.PaidCount,
			"by_cashier":  mustJSON(r.ByCashier),
		}

	case "list_pending_returns":
		page, err := a.backend.ListReturns(ctx, models.ReturnFilter{Status: models.ReturnPending, OrderFilter: models.OrderFilter{Size: 50}})
		if err != nil {
			return toolError(err)
		}
		return jsonResult("returns", page.Content)
	}
	return map[string]any{"error": "unknown tool " + call.Name}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var out []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			out = append(out, fc)
		}
	}
	return out
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not come up with an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}

func jsonResult(key string, v any) map[string]any {
	return map[string]any{key: mustJSON(v)}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func toolError(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}
