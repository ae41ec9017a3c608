package logsender

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hermannafesehbuma/khalifa-auto/internal/mailer"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

func TestSend_LogsAndReturnsID(t *testing.T) {
	var buf bytes.Buffer
	s := New(logger.NewWithWriter("test", "info", &buf))

	id, err := s.Send(context.Background(), &mailer.Message{
		From:    "orders@khalifa-auto.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Hello",
		Text:    "body",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"subject":"Hello"`)
	assert.Contains(t, buf.String(), `"to":"a@example.com,b@example.com"`)
	assert.Contains(t, buf.String(), id)
}
