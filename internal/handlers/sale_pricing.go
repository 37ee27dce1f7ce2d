package handlers

func isProductOnSale(price, discountPrice float64) bool {
	return discountPrice > 0 && discountPrice < price
}

func effectiveProductPrice(price, discountPrice float64) float64 {
	if isProductOnSale(price, discountPrice) {
		return discountPrice
	}
	return price
}
