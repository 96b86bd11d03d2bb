package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/catalog"
)

type GetProductDetailsInput struct {
	ProductID int `json:"product_id"`
}

type GetProductDetailsOutput struct {
	Product
}

func createGetProductDetailsTool(cat *catalog.Catalog) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_product_details",
			Desc: "Get the full catalog record of one product: name, category, price, description and image. Use this when the customer asks about a specific product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {
					Type:     schema.Integer,
					Desc:     "Product id obtained from search_product results",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetProductDetailsInput) (*GetProductDetailsOutput, error) {
			if in.ProductID == 0 {
				return nil, fmt.Errorf("product_id is required")
			}

			p, ok := cat.FindByID(in.ProductID)
			if !ok {
				return nil, errx.NotFound("product", in.ProductID)
			}
			return &GetProductDetailsOutput{Product: toolProduct(p)}, nil
		},
	)
}

// ===================================
// Add To Cart Tool
// ===================================

type AddToCartInput struct {
	ProductID int `json:"product_id"`
}

type AddToCartOutput struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func createAddToCartTool(cart Cart) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "add_to_cart",
			Desc: "Add one unit of a product to the customer's cart. Returns the product and the quantity now held.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {
					Type:     schema.Integer,
					Desc:     "Product id obtained from search_product results",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *AddToCartInput) (*AddToCartOutput, error) {
			if in.ProductID == 0 {
				return nil, fmt.Errorf("product_id is required")
			}
			if cart == nil {
				return nil, fmt.Errorf("no cart available")
			}

			entry, err := cart.AddToCart(ctx, in.ProductID)
			if err != nil {
				return nil, err
			}
			return &AddToCartOutput{Product: toolProduct(entry.Product), Quantity: entry.Quantity}, nil
		},
	)
}
