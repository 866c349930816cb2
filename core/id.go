package core

import (
	"github.com/google/uuid"

	"github.com/medhika/skripsihub/schema"
)

func newMessageID() schema.MessageID {
	return schema.MessageID(uuid.NewString())
}

func newStreamingID() schema.MessageID {
	return schema.MessageID(schema.StreamingIDPrefix + uuid.NewString())
}
