package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Empty(t, buildFilter(ListFilter{}, []string{"name"}))
}

func TestBuildFilter_AllClauses(t *testing.T) {
	read := true
	filter := buildFilter(ListFilter{Query: " a.b ", Status: "resolved", Read: &read}, []string{"name", "email"})
	require.Len(t, filter, 3)

	assert.Equal(t, "$or", filter[0].Key)
	or, ok := filter[0].Value.(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.D{{Key: "name", Value: bson.Regex{Pattern: `a\.b`, Options: "i"}}}, or[0])
	assert.Equal(t, bson.D{{Key: "email", Value: bson.Regex{Pattern: `a\.b`, Options: "i"}}}, or[1])

	assert.Equal(t, bson.E{Key: "status", Value: "resolved"}, filter[1])
	assert.Equal(t, bson.E{Key: "read", Value: true}, filter[2])
}

func TestByID(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "_id", Value: "abc"}}, byID("abc"))
}
