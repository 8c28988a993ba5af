package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venicegeo/bf-mosaiks/stac"
)

type fakeSearcher struct {
	mutex   sync.Mutex
	calls   []stac.SearchOptions
	perCall int
	failOn  int
}

func (fs *fakeSearcher) Search(ctx context.Context, options stac.SearchOptions) ([]stac.Item, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	fs.calls = append(fs.calls, options)
	if fs.failOn == len(fs.calls) {
		return nil, errors.New("upstream down")
	}
	items := make([]stac.Item, fs.perCall)
	for i := range items {
		items[i] = stac.Item{ID: fmt.Sprintf("%s-%d", options.Start.Format("20060102"), i)}
	}
	return items, nil
}

func (fs *fakeSearcher) callCount() int {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return len(fs.calls)
}

type fakeWriter struct {
	mutex        sync.Mutex
	seen         map[string]bool
	err          error
	maintenances int
}

func (fw *fakeWriter) UpsertItems(ctx context.Context, items []stac.Item) (int, error) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	if fw.err != nil {
		return 0, fw.err
	}
	if fw.seen == nil {
		fw.seen = map[string]bool{}
	}
	written := 0
	for _, item := range items {
		if !fw.seen[item.ID] {
			fw.seen[item.ID] = true
			written++
		}
	}
	return written, nil
}

func (fw *fakeWriter) Maintain(ctx context.Context) error {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.maintenances++
	return nil
}

func (fw *fakeWriter) maintenanceCount() int {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	return fw.maintenances
}

var day0 = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func TestIngest_Windows(t *testing.T) {
	// Mock
	searcher := &fakeSearcher{perCall: 2}
	writer := &fakeWriter{}
	imp := NewImporter(searcher, writer, Options{Collections: []string{"landsat-c2-l2"}, MaxCloudCover: 30})

	// Tested code
	result := imp.Ingest(context.Background(), day0, day0.Add(60*time.Hour), nil)

	// Asserts
	require.Len(t, searcher.calls, 3)
	assert.Equal(t, day0, searcher.calls[0].Start)
	assert.Equal(t, day0.Add(24*time.Hour), searcher.calls[1].Start)
	assert.Equal(t, day0.Add(60*time.Hour-time.Nanosecond), searcher.calls[2].End)
	assert.Equal(t, []string{"landsat-c2-l2"}, searcher.calls[0].Collections)
	assert.Equal(t, 30.0, searcher.calls[0].MaxCloudCover)
	assert.Contains(t, result, "#Added:\t\t6")
	assert.Contains(t, result, "#Skipped:\t0")
	assert.Contains(t, result, "Canceled: false")
	assert.Equal(t, 1, writer.maintenanceCount())
}

func TestIngest_SkipsUnchanged(t *testing.T) {
	searcher := &fakeSearcher{perCall: 3}
	writer := &fakeWriter{}
	imp := NewImporter(searcher, writer, Options{})

	imp.Ingest(context.Background(), day0, day0.Add(24*time.Hour), nil)
	result := imp.Ingest(context.Background(), day0, day0.Add(24*time.Hour), nil)

	assert.Contains(t, result, "#Added:\t\t0")
	assert.Contains(t, result, "#Skipped:\t3")
}

func TestIngest_Errors(t *testing.T) {
	searcher := &fakeSearcher{perCall: 2, failOn: 1}
	writer := &fakeWriter{}
	imp := NewImporter(searcher, writer, Options{})

	result := imp.Ingest(context.Background(), day0, day0.Add(48*time.Hour), nil)
	assert.Contains(t, result, "#Added:\t\t2")
	assert.Contains(t, result, "#Error:\t\t1")

	writer.err = errors.New("db down")
	result = imp.Ingest(context.Background(), day0, day0.Add(24*time.Hour), nil)
	assert.Contains(t, result, "#Error:\t\t2")
}

func TestIngest_Abort(t *testing.T) {
	searcher := &fakeSearcher{perCall: 1}
	imp := NewImporter(searcher, &fakeWriter{}, Options{})
	messages := make(chan string, 2)
	messages <- "ignored"
	messages <- AbortIngestJobMessage

	result := imp.Ingest(context.Background(), day0, day0.Add(72*time.Hour), messages)

	assert.Equal(t, 0, searcher.callCount())
	assert.Contains(t, result, "Canceled: true")
}

func TestImport_UsesLookback(t *testing.T) {
	searcher := &fakeSearcher{}
	imp := NewImporter(searcher, &fakeWriter{}, Options{Lookback: 48 * time.Hour, Step: 24 * time.Hour})
	imp.now = func() time.Time { return day0 }

	imp.Import(nil)

	require.Len(t, searcher.calls, 2)
	assert.Equal(t, day0.Add(-48*time.Hour), searcher.calls[0].Start)
}

func TestImportWhile(t *testing.T) {
	// Mock
	searcher := &fakeSearcher{perCall: 1}
	writer := &fakeWriter{}
	imp := NewImporter(searcher, writer, Options{Lookback: 24 * time.Hour})
	messages := make(chan string)
	done := make(chan struct{})

	// Tested code
	go func() {
		imp.ImportWhile(messages, time.Hour)
		close(done)
	}()
	messages <- BeginIngestJobMessage

	// Asserts
	assert.Eventually(t, func() bool { return writer.maintenanceCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	status := imp.GetStatus()
	assert.Contains(t, status, "Sleeping until")
	assert.Contains(t, status, "#Added:\t\t1")

	close(messages)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ImportWhile did not return after its channel closed")
	}
}

func TestDrainMessages(t *testing.T) {
	assert.False(t, drainMessages(nil))

	messages := make(chan string, 3)
	messages <- BeginIngestJobMessage
	messages <- AbortIngestJobMessage
	messages <- BeginIngestJobMessage
	assert.True(t, drainMessages(messages))
	assert.Len(t, messages, 0)

	close(messages)
	assert.False(t, drainMessages(messages))
}
