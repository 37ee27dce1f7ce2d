package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	DiscountPrice float64            `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`
	Images        StringList         `bson:"images" json:"images"`
	Category      string             `bson:"category" json:"category"`
	Stock         int                `bson:"stock" json:"stock"`
	InStock       bool               `bson:"-" json:"inStock"`
	IsFeatured    bool               `bson:"isFeatured" json:"isFeatured"`
	IsTrending    bool               `bson:"isTrending" json:"isTrending"`
	IsNewArrival  bool               `bson:"isNewArrival" json:"isNewArrival"`
	Tags          []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
