package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub-io/taskhub/internal/config"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	key := ExportKey("u1", "p1", at)
	assert.Equal(t, "users/u1/projects/p1/20300102T020405Z.json", key)
}

func TestPresignGetWithCustomEndpoint(t *testing.T) {
	client, err := NewS3Client(context.Background(), config.Export{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "exports",
		AccessKeyID:     "test",
		SecretAccessKey: "testsecret",
	})
	require.NoError(t, err)

	url, err := client.PresignGet(context.Background(), "users/u1/projects/p1/x.json", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/exports/users/u1/projects/p1/x.json"), url)
	assert.Contains(t, url, "X-Amz-Expires=300")
	assert.Contains(t, url, "X-Amz-Signature=")
}
