package tools

import (
	"context"
	"sort"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	errx "github.com/techstore-demo/server/internal/core/error"
	"github.com/techstore-demo/server/internal/storefront/catalog"
	"github.com/techstore-demo/server/internal/storefront/model"
	logx "github.com/techstore-demo/server/pkg/logger"
)

// Cart is the shopper capability the add_to_cart tool drives.
type Cart interface {
	AddToCart(ctx context.Context, productID int) (model.CartEntry, error)
}

// Product is the catalog entry as returned to tool callers.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

func toolProduct(p model.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Price:       p.Price.InexactFloat64(),
		Description: p.Description,
		Image:       p.Image,
	}
}

// Registry exposes the storefront's assistant tools.
type Registry struct {
	catalog *catalog.Catalog
}

func NewRegistry(cat *catalog.Catalog) *Registry {
	return &Registry{catalog: cat}
}

// Tools builds the tool set bound to one shopper's cart.
func (r *Registry) Tools(cart Cart) []tool.InvokableTool {
	return []tool.InvokableTool{
		createSearchProductTool(r.catalog),
		createGetProductDetailsTool(r.catalog),
		createAddToCartTool(cart),
	}
}

// Infos describes every tool, sorted by name.
func (r *Registry) Infos(ctx context.Context) ([]*schema.ToolInfo, error) {
	var infos []*schema.ToolInfo
	for _, t := range r.Tools(nil) {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Invoke runs the named tool with JSON arguments and returns its JSON result.
func (r *Registry) Invoke(ctx context.Context, cart Cart, name, argumentsInJSON string) (string, error) {
	for _, t := range r.Tools(cart) {
		info, err := t.Info(ctx)
		if err != nil {
			return "", err
		}
		if info.Name != name {
			continue
		}

		logx.Debug().Str("tool", name).Str("input", argumentsInJSON).Msg("tool start")
		out, err := t.InvokableRun(ctx, argumentsInJSON)
		if err != nil {
			logx.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
			return "", err
		}
		logx.Debug().Str("tool", name).Str("output", out).Msg("tool end")
		return out, nil
	}
	return "", errx.NotFound("tool", name)
}
