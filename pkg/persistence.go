package kernelci

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	dayFormat              = "2006-01-02"
	baseResultsDBDirectory = filepath.FromSlash("data/kernelci/results")
	baseRecordsDBDirectory = filepath.FromSlash("data/kernelci/reports")
)

//ListReports returns the report requests persisted over the last rewindDays days
func ListReports(rewindDays int) (result []kcimodel.ReportRequest) {
	if rewindDays < 0 {
		log.Print("The number of days in the past must be non-negative.")
		return
	}
	dirs, err := ioutil.ReadDir(baseResultsDBDirectory)
	if err != nil {
		log.Print(err)
		return
	}

	allowedDates := make(map[string]bool)
	today := time.Now()
	for d := rewindDays; d >= 0; d-- {
		allowedDates[today.AddDate(0, 0, -1*d).Format(dayFormat)] = true
	}

	matchedDirs := []string{}
	for _, d := range dirs {
		dirName := d.Name()
		if _, present := allowedDates[dirName]; present {
			matchedDirs = append(matchedDirs, dirName)
		}
	}

	for _, d := range matchedDirs {
		dirs, err := ioutil.ReadDir(filepath.Join(baseResultsDBDirectory, d))
		if err != nil {
			log.Print(err)
			return
		}

		for _, rID := range dirs {
			reportID := rID.Name()
			if prr, err := LoadReportRequest(d, reportID); err == nil {
				result = append(result, prr.Request)
			}
		}
	}

	return
}

//StreamReport streams the stored test suites of a report to a callback function
func StreamReport(day, reportID string, callback func(progress, total int, suites []kcimodel.TestSuite)) {
	if prr, err := LoadReportRequest(day, reportID); err == nil {
		tot := len(prr.Suites)
		streamExistingReport(prr, func(progress int, suites []kcimodel.TestSuite, narrative string) {
			callback(progress, tot, suites)
		})
	}
}

//streamExistingReport sends stored suites via a callback function
func streamExistingReport(prr kcimodel.PersistedReportRequest,
	callback func(progress int, suites []kcimodel.TestSuite, narrative string)) {
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseResultsDBDirectory, prr.Request.Day, prr.Request.ReportID)
	opts.ValueDir = opts.Dir
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	defer db.Close()

	seen := make(map[string]bool)
	total := len(prr.Suites)
	position := 0

	db.View(func(txn *badger.Txn) error {

		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			suiteName := string(item.Key())
			if _, present := seen[suiteName]; !present {
				seen[suiteName] = true
				data, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				suites, err := kcimodel.UnmarshallTestSuites(data)
				if err != nil {
					return err
				}
				position++
				narrative := fmt.Sprintf("Loaded results of %s. Progress %f%% %d suites of a total of %d\n",
					suiteName, 100*float32(position)/float32(total), position, total)
				callback(position, suites, narrative)
			}
		}
		return nil
	})

}

//LoadReportContext reassembles the full report context of a stored report, suites included
func LoadReportContext(day, reportID string) (ctx kcimodel.ReportContext, e error) {
	prr, err := LoadReportRequest(day, reportID)
	if err != nil {
		return ctx, err
	}
	ctx = prr.Context
	streamExistingReport(prr, func(progress int, suites []kcimodel.TestSuite, narrative string) {
		ctx.TestSuites = append(ctx.TestSuites, suites...)
	})
	return ctx, nil
}

//PersistTestSuites persists the submitted results of one named test suite
func PersistTestSuites(prr kcimodel.PersistedReportRequest, suiteName string, suites []kcimodel.TestSuite) {
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseResultsDBDirectory, prr.Request.Day, prr.Request.ReportID)
	opts.ValueDir = opts.Dir
	opts.NumVersionsToKeep = 0
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	defer db.Close()

	db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(suiteName), marshallTestSuites(suites))
	})
}

//LoadReportRequest retrieves a persisted report request from folder following a layout pattern
func LoadReportRequest(day, reportID string) (prr kcimodel.PersistedReportRequest, e error) {
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseResultsDBDirectory, day, reportID, "request")
	opts.ValueDir = opts.Dir
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return prr, err
	}
	defer db.Close()
	data := []byte{}
	outErr := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(reportID))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return nil
	})
	if outErr != nil {
		return prr, outErr
	}
	return kcimodel.UnmarshallPersistedReportRequest(data)
}

//marshallTestSuites marshalls a test suite collection
func marshallTestSuites(suites []kcimodel.TestSuite) []byte {
	result := bytes.Buffer{}
	gob.Register([]kcimodel.TestSuite{})
	err := gob.NewEncoder(&result).Encode(&suites)
	if err != nil {
		log.Print(err)
	}
	return result.Bytes()
}

//PersistReportRequest persists a report request
func PersistReportRequest(prr kcimodel.PersistedReportRequest) {
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseResultsDBDirectory, prr.Request.Day, prr.Request.ReportID, "request")
	opts.ValueDir = opts.Dir
	opts.NumVersionsToKeep = 0
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	defer db.Close()

	db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prr.Request.ReportID), prr.Marshall())
	})

	if prr.Progress > 0 && prr.Progress%10 == 0 { //compact DB every 10 suites
		lsmx, vlogx := db.Size()
		for db.RunValueLogGC(.8) == nil {
			lsmy, vlogy := db.Size()
			log.Printf("Compacted DB. Before LSM: %d, VLOG: %d, After LSM: %d, VLOG: %d", lsmx, vlogx, lsmy, vlogy)
			lsmx, vlogx = lsmy, vlogy
		}
	}
}

//PersistReportRecord stores the outcome of a report send action under the day it happened
func PersistReportRecord(record kcimodel.ReportRecord) {
	day := record.CreatedOn.Format(dayFormat)
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseRecordsDBDirectory, day)
	opts.ValueDir = opts.Dir
	opts.NumVersionsToKeep = 0
	if _, err := os.Stat(opts.Dir); os.IsNotExist(err) {
		if err2 := os.MkdirAll(opts.Dir, 0755); err2 != nil {
			log.Errorln("Could not create the path ", opts.Dir)
			return
		}
	}
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	defer db.Close()

	db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(record.Name), marshallReportRecord(record))
	})
}

//ListReportRecords returns the send outcomes recorded over the last rewindDays days
func ListReportRecords(rewindDays int) (result []kcimodel.ReportRecord) {
	if rewindDays < 0 {
		log.Print("The number of days in the past must be non-negative.")
		return
	}

	today := time.Now()
	for d := rewindDays; d >= 0; d-- {
		day := today.AddDate(0, 0, -1*d).Format(dayFormat)
		dir := filepath.Join(baseRecordsDBDirectory, day)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		opts := badger.DefaultOptions
		opts.Dir = dir
		opts.ValueDir = dir
		db, err := badger.Open(opts)
		if err != nil {
			log.Error(err)
			continue
		}

		db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchSize = 100
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				data, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				if record, err := kcimodel.UnmarshallReportRecord(data); err == nil {
					result = append(result, record)
				}
			}
			return nil
		})
		db.Close()
	}

	return
}

//marshallReportRecord marshalls a report record
func marshallReportRecord(record kcimodel.ReportRecord) []byte {
	result := bytes.Buffer{}
	gob.Register(kcimodel.ReportRecord{})
	err := gob.NewEncoder(&result).Encode(&record)
	if err != nil {
		log.Print(err)
	}
	return result.Bytes()
}

//CompactDB reclaims space by pruning the database of a stored report
func CompactDB(dayPath, reportID string) {

	//compact the report requests
	opts := badger.DefaultOptions
	opts.Dir = filepath.Join(baseResultsDBDirectory, dayPath, reportID, "request")
	opts.ValueDir = opts.Dir
	opts.NumVersionsToKeep = 0
	db, err := badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	lsmx, vlogx := db.Size()
	for db.RunValueLogGC(.8) == nil {
		lsmy, vlogy := db.Size()
		log.Printf("Compacted DB %s. Before LSM: %d, VLOG: %d, After LSM: %d, VLOG: %d", opts.Dir, lsmx, vlogx, lsmy, vlogy)
		lsmx, vlogx = lsmy, vlogy
	}
	db.Close()

	//compact the stored suite results
	opts.Dir = filepath.Join(baseResultsDBDirectory, dayPath, reportID)
	opts.ValueDir = opts.Dir
	db, err = badger.Open(opts)
	if err != nil {
		log.Error(err)
		return
	}
	lsmx, vlogx = db.Size()
	for db.RunValueLogGC(.8) == nil {
		lsmy, vlogy := db.Size()
		log.Printf("Compacted DB %s. Before LSM: %d, VLOG: %d, After LSM: %d, VLOG: %d", opts.Dir, lsmx, vlogx, lsmy, vlogy)
		lsmx, vlogx = lsmy, vlogy
	}
	db.Close()

}

//GetNextReportID returns the next unique report ID, creating its folder under the current day
func GetNextReportID() string {
	prefix := filepath.Join(baseResultsDBDirectory, time.Now().Format(dayFormat))
	if _, err := os.Stat(prefix); os.IsNotExist(err) {
		if err2 := os.MkdirAll(prefix, 0755); err2 != nil {
			log.Fatal("Could not create the path ", prefix)
		}
	}
	reportID := uuid.New().String()
	if err := os.MkdirAll(filepath.Join(prefix, reportID), 0755); err != nil {
		log.Fatal(err)
		return ""
	}
	return reportID
}
