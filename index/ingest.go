package index

import (
	"context"
	"fmt"
	"time"

	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/util"
)

//BeginIngestJobMessage is sent on a channel to start an ingest job.
const BeginIngestJobMessage = "start"

//AbortIngestJobMessage is sent on a channel to stop an in-progress job.
const AbortIngestJobMessage = "stop"

const statusTimeLayout = "Mon Jan _2 15:04:05 2006"

type jobStats struct {
	NumberAddedOrUpdated int
	NumberSkipped        int
	NumberError          int
	StartTime            time.Time
	EndTime              time.Time
	CanceledByUser       bool
}

func (stats *jobStats) String() string {
	return fmt.Sprintf(`
		Start:	%v
		End:	%v
		Canceled: %v
		#Added:		%v
		#Skipped:	%v
		#Error:		%v
		`,
		stats.StartTime.Format(statusTimeLayout),
		stats.EndTime.Format(statusTimeLayout),
		stats.CanceledByUser,
		stats.NumberAddedOrUpdated,
		stats.NumberSkipped,
		stats.NumberError)
}

//Ingest walks [start, end) one Step at a time, searching each window and
//upserting what it finds. A failed window is counted and logged, then skipped.
func (imp *Importer) Ingest(ctx context.Context, start, end time.Time, cancelChan <-chan string) string {
	var stats jobStats
	stats.StartTime = imp.now()
	lastProgressLogTime := imp.now()
	progressLogInterval := 30 * time.Second

WindowLoop:
	for windowStart := start; windowStart.Before(end); windowStart = windowStart.Add(imp.options.Step) {
		//Check whether the user has requested cancelation.
		if abort := drainMessages(cancelChan); abort {
			util.LogInfo(imp, "Ingest job canceled by user.")
			stats.CanceledByUser = true
			break WindowLoop
		}

		//Report the status to anyone waiting for it.
		drainStatusChannel(imp.statusChan, &stats)

		if time.Since(lastProgressLogTime) > progressLogInterval {
			util.LogInfo(imp, fmt.Sprintf("Ingest Progress: Added:%v Skipped:%v Error:%v",
				stats.NumberAddedOrUpdated, stats.NumberSkipped, stats.NumberError))
			lastProgressLogTime = time.Now()
		}

		windowEnd := windowStart.Add(imp.options.Step)
		if windowEnd.After(end) {
			windowEnd = end
		}
		items, err := imp.searcher.Search(ctx, stac.SearchOptions{
			Collections:   imp.options.Collections,
			BBox:          imp.options.BBox,
			MaxCloudCover: imp.options.MaxCloudCover,
			Start:         windowStart,
			End:           windowEnd.Add(-time.Nanosecond),
		})
		if err != nil {
			stats.NumberError++
			util.LogAlert(imp, fmt.Sprintf("Error searching %v to %v: %v", windowStart, windowEnd, err))
			continue
		}
		if len(items) == 0 {
			continue
		}
		written, err := imp.writer.UpsertItems(ctx, items)
		if err != nil {
			stats.NumberError += len(items)
			util.LogAlert(imp, "Error inserting scenes into db. "+err.Error())
			continue
		}
		stats.NumberAddedOrUpdated += written
		stats.NumberSkipped += len(items) - written
	}

	//Clear the status requests before doing the long-running operation.
	drainStatusChannel(imp.statusChan, &stats)
	imp.doDatabaseMaintenance(ctx)

	stats.EndTime = imp.now()
	util.LogInfo(imp, "Ingest Complete: "+stats.String())
	util.LogInfo(imp, fmt.Sprintf("Ingest took %s", stats.EndTime.Sub(stats.StartTime)))

	return stats.String()
}

//drainMessages reads all the messages from the channel looking for
//any abort messages.
//All other messages will be ignored and discarded.
func drainMessages(messageChan <-chan string) (abortRequested bool) {
	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			abortRequested = abortRequested || (msg == AbortIngestJobMessage)
		default:
			return
		}
	}
}

//drainStatusChannel answers every pending status request
func drainStatusChannel(statusChan <-chan chan string, stats *jobStats) {
	for {
		select {
		case resp := <-statusChan:
			if resp != nil {
				select {
				case resp <- fmt.Sprintf("%v\nIn progress\n%v", time.Now().Format(statusTimeLayout), stats.String()):
				default: //can't send. ignore this request.
				}
			}
		default:
			return
		}
	}
}

//doDatabaseMaintenance refreshes index statistics after an import
func (imp *Importer) doDatabaseMaintenance(ctx context.Context) {
	util.LogInfo(imp, "Starting database maintenance.")
	if err := imp.writer.Maintain(ctx); err != nil {
		util.LogAlert(imp, "Error during database maintenance. "+err.Error())
		return
	}
	util.LogInfo(imp, "Database maintenance complete.")
}
