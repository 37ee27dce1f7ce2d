package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const maxProductListing = 200

// Catalog is the read side of the product store.
type Catalog interface {
	FindBySlug(ctx context.Context, slug string) (models.Product, error)
	List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error)
}

/*
GET /api/products
- category and search are optional
- limit is optional and capped
*/
func GetProducts(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		limit, err := parseLimit(c.Query("limit"), maxProductListing)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		products, err := catalog.List(ctx, repositories.ProductFilter{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
			Limit:    limit,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "", presentProducts(products))
	}
}

func GetProductBySlug(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:slug"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := catalog.FindBySlug(ctx, strings.TrimSpace(c.Param("slug")))
		if errors.Is(err, repositories.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondSuccess(c, http.StatusOK, "", presentProduct(product))
	}
}
