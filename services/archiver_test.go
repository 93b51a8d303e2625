package services

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/models"
)

func TestEncodeLogs(t *testing.T) {
	userID := uint(3)
	logs := []models.SearchLog{
		{ID: 1, CreatedAt: time.Now().AddDate(0, 0, -40), Query: "golang", ResultCount: 4},
		{ID: 2, CreatedAt: time.Now().AddDate(0, 0, -35), Query: "react hooks", UserID: &userID, ResultCount: 0},
	}

	data, err := encodeLogs(logs)
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	var decoded []models.SearchLog
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		var entry models.SearchLog
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		decoded = append(decoded, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, decoded, 2)
	assert.Equal(t, "golang", decoded[0].Query)
	assert.Equal(t, "react hooks", decoded[1].Query)
	require.NotNil(t, decoded[1].UserID)
	assert.Equal(t, userID, *decoded[1].UserID)
}
