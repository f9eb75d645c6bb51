package spool

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpool(t *testing.T) *Spool {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(filepath.Join(t.TempDir(), "spool", "frames.ndjson"), logger)
}

func claimRecords(t *testing.T, s *Spool) []models.ImportedRecord {
	t.Helper()
	batch, err := s.Claim()
	require.NoError(t, err)
	require.NoError(t, batch.Commit())
	return batch.Records
}

func TestSpool_AppendAndClaim(t *testing.T) {
	s := newTestSpool(t)

	value := 21.5
	require.NoError(t, s.Append(models.ImportedRecord{
		SourceKey: "sensor-1",
		DataType:  "number",
		ValueNum:  &value,
		Category:  "temperature",
	}))
	require.NoError(t, s.AppendFrame("farm/topic", "Payload=CIoTA-D1=2603&"))

	batch, err := s.Claim()
	require.NoError(t, err)
	records := batch.Records
	require.Len(t, records, 2)

	assert.Equal(t, "sensor-1", records[0].SourceKey)
	require.NotNil(t, records[0].ValueNum)
	assert.Equal(t, 21.5, *records[0].ValueNum)
	assert.False(t, records[0].Timestamp.IsZero())

	assert.Equal(t, "farm/topic", records[1].SourceKey)
	assert.Equal(t, "frame", records[1].DataType)
	require.NotNil(t, records[1].ValueStr)
	assert.Equal(t, "Payload=CIoTA-D1=2603&", *records[1].ValueStr)

	require.NoError(t, batch.Commit())
	assert.NoFileExists(t, s.Path()+ClaimSuffix)
	assert.Empty(t, claimRecords(t, s))
}

func TestSpool_ClaimMissingFile(t *testing.T) {
	s := newTestSpool(t)

	batch, err := s.Claim()
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
	assert.NoError(t, batch.Commit())
}

func TestSpool_UncommittedClaimIsRetried(t *testing.T) {
	s := newTestSpool(t)
	require.NoError(t, s.AppendFrame("a", "x"))
	require.NoError(t, s.AppendFrame("b", "y"))

	first, err := s.Claim()
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	// the import failed, so nothing is committed
	second, err := s.Claim()
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
	require.NoError(t, second.Commit())

	assert.Empty(t, claimRecords(t, s))
}

func TestSpool_AppendDuringClaim(t *testing.T) {
	s := newTestSpool(t)
	require.NoError(t, s.AppendFrame("before", "x"))

	batch, err := s.Claim()
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)

	require.NoError(t, s.AppendFrame("after", "y"))
	require.NoError(t, batch.Commit())

	records := claimRecords(t, s)
	require.Len(t, records, 1)
	assert.Equal(t, "after", records[0].SourceKey)
}

func TestSpool_ClaimSkipsMalformedLines(t *testing.T) {
	s := newTestSpool(t)
	require.NoError(t, s.AppendFrame("a", "x"))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.AppendFrame("b", "y"))

	records := claimRecords(t, s)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].SourceKey)
	assert.Equal(t, "b", records[1].SourceKey)
}

func TestSpool_ConcurrentAppend(t *testing.T) {
	s := newTestSpool(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AppendFrame("topic", "D5=400&"))
		}()
	}
	wg.Wait()

	assert.Len(t, claimRecords(t, s), 20)
}
