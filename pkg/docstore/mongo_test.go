package docstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMongo_SingleAttemptWithoutRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	start := time.Now()
	client, err := docstore.ConnectMongo(ctx, docstore.MongoConfig{
		ConnectionURL:  "mongodb://127.0.0.1:1/?directConnection=true",
		ConnectTimeout: 500 * time.Millisecond,
		MaxPoolSize:    1,
		RetryAttempts:  0,
		RetryInterval:  time.Hour,
	})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, docstore.ErrFailedToConnectToMongo)
	assert.NotEqual(t, docstore.ErrFailedToConnectToMongo.Error(), err.Error(), "last ping error is attached")
	assert.Less(t, time.Since(start), time.Minute, "no pause after the final attempt")
}
