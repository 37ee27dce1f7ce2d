package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStringListDecodesLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"name": "Mug", "images": " /img/mug.png "})
	require.NoError(t, err)

	var product Product
	require.NoError(t, bson.Unmarshal(raw, &product))
	assert.Equal(t, StringList{"/img/mug.png"}, product.Images)
	assert.Equal(t, "/img/mug.png", product.Images.First())
}

func TestStringListRoundTripsAsArray(t *testing.T) {
	raw, err := bson.Marshal(Product{Name: "Mug", Images: StringList{"a.png", "b.png"}})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, bson.A{"a.png", "b.png"}, doc["images"])
}

func TestOrderStatusValid(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, OrderStatus("archived").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderItemCount(t *testing.T) {
	order := Order{Items: []OrderItem{{Quantity: 2}, {Quantity: 3}}}
	assert.Equal(t, 5, order.ItemCount())
}
