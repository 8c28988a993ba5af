package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/venicegeo/bf-mosaiks/discover"
	"github.com/venicegeo/bf-mosaiks/index"
	"github.com/venicegeo/bf-mosaiks/sas"
	"github.com/venicegeo/bf-mosaiks/stac"
	"github.com/venicegeo/bf-mosaiks/store"
	"github.com/venicegeo/bf-mosaiks/util"
	cli "gopkg.in/urfave/cli.v1"
)

var indexFlags = []cli.Flag{
	cli.StringFlag{Name: "bbox", Usage: "Only index scenes over minLon,minLat,maxLon,maxLat"},
	cli.Float64Flag{Name: "max-cloud-cover", Usage: "Only index scenes below this cloud cover percentage"},
	cli.DurationFlag{Name: "lookback", Value: 30 * 24 * time.Hour, Usage: "How far back each job harvests"},
	cli.DurationFlag{Name: "step", Value: 24 * time.Hour, Usage: "Acquisition window searched at a time"},
	cli.BoolFlag{Name: "once", Usage: "Run a single job and exit instead of serving"},
	collectionFlag,
}

//newImporter wires the STAC API into the scene index. Items are stored
//unsigned; readers sign them.
func newImporter(c *cli.Context) (*index.Importer, func(), error) {
	options := index.Options{
		Collections:   []string{c.String("collection")},
		MaxCloudCover: c.Float64("max-cloud-cover"),
		Lookback:      c.Duration("lookback"),
		Step:          c.Duration("step"),
	}
	if raw := c.String("bbox"); raw != "" {
		bound, err := discover.ParseBBox(raw)
		if err != nil {
			return nil, nil, err
		}
		options.BBox = &bound
	}
	database, err := getDbConnectionFunc(&util.BasicLogContext{})
	if err != nil {
		return nil, nil, err
	}
	client := stac.NewClient(util.GetSTACURL(), sas.NoopSigner{})
	return index.NewImporter(client, store.NewSceneIndex(database), options), func() { database.Close() }, nil
}

//indexAction starts the worker process and an http server
func indexAction(c *cli.Context) error {
	importer, closeDB, err := newImporter(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if c.Bool("once") {
		fmt.Fprintln(c.App.Writer, importer.Import(nil))
		return nil
	}

	//Create the channel that sends the start/stop messages to the Importer.
	messageChan := make(chan string, 5) //small buffer.

	//Start the sleep/ingest loop.
	go importer.ImportWhile(messageChan, util.GetIndexFrequency())

	portStr := util.GetPortStr()
	log.Println("Listening on port", portStr)
	launchServerFunc(portStr, createIndexRouter(importer, messageChan))
	return nil
}

func createIndexRouter(importer *index.Importer, messageChan chan<- string) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ingest/", func(resp http.ResponseWriter, req *http.Request) {
		handleImportStatus(importer, resp, req)
	})
	router.HandleFunc("/ingest/start", func(resp http.ResponseWriter, req *http.Request) {
		handleForceStartIngest(importer, messageChan, resp, req)
	})
	router.HandleFunc("/ingest/cancel", func(resp http.ResponseWriter, req *http.Request) {
		handleCancel(importer, messageChan, resp, req)
	})
	return router
}

//handleImportStatus requests the status from the importer and writes it out.
func handleImportStatus(imp *index.Importer, writer http.ResponseWriter, req *http.Request) {
	fmt.Fprintln(writer, imp.GetStatus())
}

//handleForceStartIngest sends a "begin" message to the importer and returns the new status to the user.
func handleForceStartIngest(imp *index.Importer, messageChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case messageChan <- index.BeginIngestJobMessage:
		fmt.Fprintln(writer, "Begin job request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting request.")
	}
	fmt.Fprintln(writer, imp.GetStatus())
}

//handleCancel sends a "cancel" message to the importer and returns the new status to the user.
func handleCancel(imp *index.Importer, cancelChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case cancelChan <- index.AbortIngestJobMessage:
		fmt.Fprintln(writer, "Cancel request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting cancel request.")
	}
	fmt.Fprintln(writer, imp.GetStatus())
}
