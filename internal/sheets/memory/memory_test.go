package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/sheets"
)

func TestAppendAudit(t *testing.T) {
	s := New()
	ref, err := s.AppendAudit(context.Background(), sheets.AuditRecord{Action: "created", Category: "cloud", Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = s.AppendAudit(context.Background(), sheets.AuditRecord{Action: "deleted", Category: "cloud"})
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)

	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "deleted", recs[1].Action)
}
