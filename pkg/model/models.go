package kcimodel

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

//Test case statuses as reported by the labs
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

//Report send outcomes recorded in a ReportRecord
const (
	StatusSent  = "SENT"
	StatusError = "ERROR"
)

//TestReportType marks records produced by the test report pipeline
const TestReportType = "test"

//TestCase is a single named test with its reported status
type TestCase struct {
	Name   string
	Status string
}

//TestSuite is a named collection of test case results for one board and configuration
type TestSuite struct {
	Name          string
	Board         string
	TotalTests    int
	TotalPass     int
	TotalFail     int
	TotalSkip     int
	DefconfigFull string
	LabName       string
	CreatedOn     time.Time
	TestCases     []TestCase
}

//TotalsConsistent says whether the advertised test total matches the sum of the
//pass/fail/skip counters. The counters come from the upstream producer and are
//trusted as-is at render time
func (s TestSuite) TotalsConsistent() bool {
	return s.TotalTests == s.TotalPass+s.TotalFail+s.TotalSkip
}

//CountResults recomputes the counters from the attached test cases. Only used when
//ingesting payloads that did not fill them in
func (s *TestSuite) CountResults() {
	pass, fail, skip := 0, 0, 0
	for _, tc := range s.TestCases {
		switch tc.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusSkip:
			skip++
		}
	}
	s.TotalTests = len(s.TestCases)
	s.TotalPass = pass
	s.TotalFail = fail
	s.TotalSkip = skip
}

//ReportContext is the read-only input record for a single test report render
type ReportContext struct {
	Tree       string
	Branch     string
	Kernel     string
	GitURL     string
	GitCommit  string
	TestSuites []TestSuite
}

//Totals aggregates the stored suite counters across the whole report
func (c ReportContext) Totals() (tests, pass, fail, skip int) {
	for _, s := range c.TestSuites {
		tests += s.TotalTests
		pass += s.TotalPass
		fail += s.TotalFail
		skip += s.TotalSkip
	}
	return
}

//ReportRequest identifies a stored report for a given tree and kernel
type ReportRequest struct {
	Tree     string
	Kernel   string
	LabName  string
	Day      string
	ReportID string
}

//PersistedReportRequest couples a report request with its context and ingest progress.
//Suites lists the names of the test suites stored alongside the request; Context is
//persisted without its suite collection, which lives under its own keys
type PersistedReportRequest struct {
	Request  ReportRequest
	Context  ReportContext
	Suites   []string
	Progress int
	Created  time.Time
}

//Marshall gob-encodes the persisted report request
func (prr PersistedReportRequest) Marshall() []byte {
	result := bytes.Buffer{}
	gob.Register(PersistedReportRequest{})
	if err := gob.NewEncoder(&result).Encode(&prr); err != nil {
		return []byte{}
	}
	return result.Bytes()
}

//UnmarshallPersistedReportRequest decodes a gob-encoded persisted report request
func UnmarshallPersistedReportRequest(data []byte) (prr PersistedReportRequest, err error) {
	gob.Register(PersistedReportRequest{})
	err = gob.NewDecoder(bytes.NewBuffer(data)).Decode(&prr)
	return
}

//UnmarshallTestSuites decodes a gob-encoded test suite collection
func UnmarshallTestSuites(data []byte) (suites []TestSuite, err error) {
	gob.Register([]TestSuite{})
	err = gob.NewDecoder(bytes.NewBuffer(data)).Decode(&suites)
	return
}

//UnmarshallReportRecord decodes a gob-encoded report record
func UnmarshallReportRecord(data []byte) (record ReportRecord, err error) {
	gob.Register(ReportRecord{})
	err = gob.NewDecoder(bytes.NewBuffer(data)).Decode(&record)
	return
}

//ReportRecord stores the outcome of a report send action
type ReportRecord struct {
	Name      string
	Tree      string
	Kernel    string
	Type      string
	Status    string
	Errors    []string
	CreatedOn time.Time
}

//NewReportRecord builds a record for the given tree and kernel with the conventional
//"<tree>-<kernel>" name
func NewReportRecord(tree, kernel, rType, status string, errors []string) ReportRecord {
	return ReportRecord{
		Name:      fmt.Sprintf("%s-%s", tree, kernel),
		Tree:      tree,
		Kernel:    kernel,
		Type:      rType,
		Status:    status,
		Errors:    errors,
		CreatedOn: time.Now(),
	}
}

//ReportProgress is the streaming data structure sent over websocket connections
type ReportProgress struct {
	ReportID   string
	Progress   float32
	TestSuites []TestSuite
	Narrative  string
}

//MailConfig holds the SMTP connection and sender details
type MailConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Sender     string `yaml:"sender"`
	SenderDesc string `yaml:"senderDesc"`
	InfoEmail  string `yaml:"infoEmail"`
}

//KernelCIConfig is the data model of the service configuration file
type KernelCIConfig struct {
	ServicePort    int        `yaml:"servicePort"`
	IsProduction   bool       `yaml:"isProduction"`
	DailySchedules []string   `yaml:"dailySchedules"`
	SendDelay      int        `yaml:"sendDelay"`
	Recipients     []string   `yaml:"recipients"`
	Mail           MailConfig `yaml:"mail"`
}
