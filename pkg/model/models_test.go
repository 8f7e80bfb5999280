package kcimodel

import (
	"reflect"
	"testing"
	"time"
)

func TestTestSuiteTotalsConsistent(t *testing.T) {
	tests := []struct {
		name  string
		suite TestSuite
		want  bool
	}{
		{
			name:  "consistent",
			suite: TestSuite{TotalTests: 3, TotalPass: 2, TotalFail: 1},
			want:  true,
		},
		{
			name:  "inconsistent",
			suite: TestSuite{TotalTests: 5, TotalPass: 2, TotalFail: 1, TotalSkip: 1},
			want:  false,
		},
		{
			name:  "empty",
			suite: TestSuite{},
			want:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.suite.TotalsConsistent(); got != tt.want {
				t.Errorf("TestSuite.TotalsConsistent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestSuiteCountResults(t *testing.T) {
	suite := TestSuite{
		TestCases: []TestCase{
			{Name: "t1", Status: StatusPass},
			{Name: "t2", Status: StatusFail},
			{Name: "t3", Status: StatusSkip},
			{Name: "t4", Status: StatusPass},
			{Name: "t5", Status: "UNKNOWN"},
		},
	}
	suite.CountResults()

	if suite.TotalTests != 5 {
		t.Errorf("TestSuite.CountResults() TotalTests = %d, want 5", suite.TotalTests)
	}
	if suite.TotalPass != 2 || suite.TotalFail != 1 || suite.TotalSkip != 1 {
		t.Errorf("TestSuite.CountResults() = %d/%d/%d, want 2/1/1",
			suite.TotalPass, suite.TotalFail, suite.TotalSkip)
	}
}

func TestSortedSuites(t *testing.T) {
	suites := []TestSuite{
		{Name: "zephyr"},
		{Name: "alsa"},
		{Name: "kselftest"},
	}

	sorted := SortedSuites(suites)

	wantOrder := []string{"alsa", "kselftest", "zephyr"}
	for i, want := range wantOrder {
		if sorted[i].Name != want {
			t.Errorf("SortedSuites()[%d] = %s, want %s", i, sorted[i].Name, want)
		}
	}
	if suites[0].Name != "zephyr" {
		t.Errorf("SortedSuites() mutated its input")
	}
}

func TestReportContextTotals(t *testing.T) {
	ctx := ReportContext{
		TestSuites: []TestSuite{
			{TotalTests: 3, TotalPass: 2, TotalFail: 1},
			{TotalTests: 4, TotalPass: 1, TotalFail: 2, TotalSkip: 1},
		},
	}
	tests, pass, fail, skip := ctx.Totals()
	if tests != 7 || pass != 3 || fail != 3 || skip != 1 {
		t.Errorf("ReportContext.Totals() = %d/%d/%d/%d, want 7/3/3/1", tests, pass, fail, skip)
	}
}

func TestGetUniqueData(t *testing.T) {
	suites := []TestSuite{
		{Board: "qemu_x86", LabName: "lab-a", DefconfigFull: "x86_64_defconfig"},
		{Board: "qemu_x86", LabName: "lab-b", DefconfigFull: "x86_64_defconfig"},
		{Board: "beaglebone-black", LabName: "lab-a", DefconfigFull: "omap2plus_defconfig"},
		{Board: "", LabName: ""},
	}

	unique := GetUniqueData(suites)

	if got := unique.Boards.Len(); got != 2 {
		t.Errorf("GetUniqueData() boards = %d, want 2", got)
	}
	if got := unique.Labs.Len(); got != 2 {
		t.Errorf("GetUniqueData() labs = %d, want 2", got)
	}
	if got := unique.Defconfigs.Len(); got != 2 {
		t.Errorf("GetUniqueData() defconfigs = %d, want 2", got)
	}
}

func TestPersistedReportRequestMarshall(t *testing.T) {
	prr := PersistedReportRequest{
		Request: ReportRequest{
			Tree:     "mainline",
			Kernel:   "v4.4-rc1",
			Day:      "2016-09-02",
			ReportID: "report-1",
		},
		Context: ReportContext{
			Tree:      "mainline",
			Branch:    "master",
			Kernel:    "v4.4-rc1",
			GitURL:    "https://git.kernel.org/torvalds/linux.git",
			GitCommit: "deadbeef",
		},
		Suites:   []string{"suiteA", "suiteB"},
		Progress: 2,
		Created:  time.Date(2016, 9, 2, 10, 0, 0, 0, time.UTC),
	}

	decoded, err := UnmarshallPersistedReportRequest(prr.Marshall())
	if err != nil {
		t.Fatalf("UnmarshallPersistedReportRequest() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, prr) {
		t.Errorf("UnmarshallPersistedReportRequest() = %#v, want %#v", decoded, prr)
	}
}
