package handlers

import "storefront/internal/models"

type productView struct {
	models.Product
	Image          string  `json:"image"`
	OnSale         bool    `json:"onSale"`
	EffectivePrice float64 `json:"effectivePrice"`
}

func presentProduct(p models.Product) productView {
	p.InStock = p.Stock > 0
	if p.Images == nil {
		p.Images = models.StringList{}
	}
	return productView{
		Product:        p,
		Image:          p.Images.First(),
		OnSale:         isProductOnSale(p.Price, p.DiscountPrice),
		EffectivePrice: effectiveProductPrice(p.Price, p.DiscountPrice),
	}
}

func presentProducts(products []models.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, presentProduct(p))
	}
	return out
}
