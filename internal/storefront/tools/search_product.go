package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/model"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 20
)

// ===================================
// Search Product Tool
// ===================================

type SearchProductInput struct {
	Query      string `json:"query"`
	Category   string `json:"category,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchProductOutput struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

func createSearchProductTool(cat *catalog.Catalog) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_product",
			Desc: "Search the TechStore catalog. Matches the query case-insensitively against product names and descriptions, optionally restricted to one category. Use this tool whenever the customer mentions a product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type: schema.String,
					Desc: "Search keywords, e.g. MacBook, wireless, pro. Empty matches every product.",
				},
				"category": {
					Type: schema.String,
					Desc: "Optional category filter",
					Enum: []string{
						string(model.CategoryLaptop),
						string(model.CategoryPhone),
						string(model.CategoryTablet),
						string(model.CategoryAccessory),
					},
				},
				"max_results": {
					Type: schema.Integer,
					Desc: "Maximum number of products to return (default: 10, max: 20)",
				},
			}),
		},
		func(ctx context.Context, in *SearchProductInput) (*SearchProductOutput, error) {
			category := model.Category(in.Category)
			if category != "" && !category.Valid() {
				return nil, fmt.Errorf("unknown category: %s", in.Category)
			}

			switch {
			case in.MaxResults <= 0:
				in.MaxResults = defaultMaxResults
			case in.MaxResults > maxMaxResults:
				in.MaxResults = maxMaxResults
			}

			matched := cat.Search(in.Query, category)
			if len(matched) > in.MaxResults {
				matched = matched[:in.MaxResults]
			}

			out := &SearchProductOutput{Products: make([]Product, 0, len(matched))}
			for _, p := range matched {
				out.Products = append(out.Products, toolProduct(p))
			}
			out.Total = len(out.Products)
			return out, nil
		},
	)
}
