package sendgrid

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSend_SkippedOutsideProduction(t *testing.T) {
	client := NewClient("fake-key", false, zerolog.Nop())

	err := client.Send(context.Background(), Message{
		To:      "user@example.com",
		From:    "digest@example.com",
		Subject: "Weekly Digest",
		HTML:    "<h1>hello</h1>",
	})

	// No network call is made outside production, so a fake key succeeds.
	assert.NoError(t, err)
}
