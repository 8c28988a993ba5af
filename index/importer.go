package index

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
)

const (
	defaultLookback = 30 * 24 * time.Hour
	defaultStep     = 24 * time.Hour
)

//ItemSearcher runs a STAC search. *stac.Client satisfies it.
type ItemSearcher interface {
	Search(ctx context.Context, options stac.SearchOptions) ([]stac.Item, error)
}

//SceneWriter stores harvested items. *store.SceneIndex satisfies it.
type SceneWriter interface {
	UpsertItems(ctx context.Context, items []stac.Item) (int, error)
	Maintain(ctx context.Context) error
}

//Options select what a harvest copies into the index
type Options struct {
	Collections   []string
	BBox          *orb.Bound
	MaxCloudCover float64
	//Lookback is how far before now a job starts harvesting
	Lookback time.Duration
	//Step is the width of the acquisition window searched at a time
	Step time.Duration
}

//Importer manages the state for an index job.
//Mainly useful when launching the job on an interval.
type Importer struct {
	util.BasicLogContext
	searcher   ItemSearcher
	writer     SceneWriter
	options    Options
	statusChan chan chan string
	now        func() time.Time
}

//NewImporter intializes a new importer.
func NewImporter(searcher ItemSearcher, writer SceneWriter, options Options) *Importer {
	if options.Lookback <= 0 {
		options.Lookback = defaultLookback
	}
	if options.Step <= 0 {
		options.Step = defaultStep
	}
	return &Importer{
		searcher:   searcher,
		writer:     writer,
		options:    options,
		statusChan: make(chan chan string, 10),
		now:        time.Now,
	}
}

//ImportWhile peforms the Import() task on a schedule or when asked.
//Note: this is blocking
//The function will exit when messageChan is closed and any in-progress jobs complete.
//To stop a running job quickly, send a stop message on messageChan.
func (imp *Importer) ImportWhile(messageChan <-chan string, maxTimeBetweenJobs time.Duration) {
	previousStatus := "\tNone"
	var nextScheduledStartTime time.Time
	var scheduleTimer *time.Timer

	for {
		if scheduleTimer == nil {
			scheduleTimer = time.NewTimer(maxTimeBetweenJobs)
			nextScheduledStartTime = imp.now().Add(maxTimeBetweenJobs)
		}

		select {
		case <-scheduleTimer.C:
			scheduleTimer = nil
			previousStatus = imp.Import(messageChan)
		case msg, ok := <-messageChan:
			if !ok {
				scheduleTimer.Stop()
				return //The message channel has been closed.
			}
			if msg == BeginIngestJobMessage {
				scheduleTimer.Stop()
				scheduleTimer = nil
				previousStatus = imp.Import(messageChan)
			}
		case respChan := <-imp.statusChan:
			select {
			case respChan <- fmt.Sprintf("%v\nStatus: Sleeping until %v\nPrevious job:\n%v",
				imp.now().Format(statusTimeLayout),
				nextScheduledStartTime.Format(statusTimeLayout),
				previousStatus):
			default:
			}
		}
	}
}

//GetStatus is a thread safe way to get information about the import operation.
//It blocks until ImportWhile is running to answer.
func (imp *Importer) GetStatus() string {
	responseChan := make(chan string, 1) //Must have a buffer. The job won't wait if it can't send.
	imp.statusChan <- responseChan
	return <-responseChan
}

//Import harvests the lookback window into the index and returns the job summary
func (imp *Importer) Import(messageChan <-chan string) string {
	end := imp.now().UTC()
	return imp.Ingest(context.Background(), end.Add(-imp.options.Lookback), end, messageChan)
}
