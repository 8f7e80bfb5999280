package plaintext

import (
	"strings"
	"testing"
	"time"

	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
)

func testContext() kcimodel.ReportContext {
	return kcimodel.ReportContext{
		Tree:      "mainline",
		Branch:    "master",
		Kernel:    "v4.4-rc1",
		GitURL:    "https://git.kernel.org/torvalds/linux.git",
		GitCommit: "deadbeef",
		TestSuites: []kcimodel.TestSuite{
			{
				Name:          "suiteA",
				Board:         "qemu_x86",
				TotalTests:    3,
				TotalPass:     2,
				TotalFail:     1,
				TotalSkip:     0,
				DefconfigFull: "x86_64_defconfig",
				LabName:       "lab-baylibre",
				CreatedOn:     time.Date(2016, 9, 2, 10, 0, 0, 0, time.UTC),
				TestCases: []kcimodel.TestCase{
					{Name: "t1", Status: "PASS"},
					{Name: "t2", Status: "PASS"},
					{Name: "t3", Status: "FAIL"},
				},
			},
		},
	}
}

func TestRenderSingleSuite(t *testing.T) {
	got, err := Render(testContext())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `Tree: mainline
Branch: master
Kernel: v4.4-rc1
URL: https://git.kernel.org/torvalds/linux.git
Commit: deadbeef

Summary
-------
1 test suites results
suiteA     | qemu_x86               |   3 total:   2 PASS   1 FAIL   0 SKIP

Tests
-----
suiteA - 3 tests: 2  PASS, 1 FAIL, 0 SKIP
  Config: x86_64_defconfig
  Lab Name: lab-baylibre
  Board: qemu_x86
  Date: 2016-09-02
  Test cases:
    * t1 : PASS
    * t2 : PASS
    * t3 : FAIL

`
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderEmptyReport(t *testing.T) {
	ctx := testContext()
	ctx.TestSuites = nil

	got, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(got, "0 test suites results") {
		t.Errorf("Render() = %q, expected a '0 test suites results' line", got)
	}
	if !strings.HasSuffix(got, "Tests\n-----\n") {
		t.Errorf("Render() = %q, expected an empty Tests section", got)
	}
}

func TestRenderSortsSuitesByName(t *testing.T) {
	ctx := testContext()
	zuite := ctx.TestSuites[0]
	zuite.Name = "zuite"
	suite := ctx.TestSuites[0]
	suite.Name = "suiteB"
	// deliberately out of order
	ctx.TestSuites = []kcimodel.TestSuite{zuite, suite}

	got, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	first := strings.Index(got, "suiteB")
	second := strings.Index(got, "zuite")
	if first < 0 || second < 0 {
		t.Fatalf("Render() = %q, missing suite names", got)
	}
	if first > second {
		t.Errorf("Render() lists %q before %q, expected ascending name order", "zuite", "suiteB")
	}
	if len(ctx.TestSuites) != 2 || ctx.TestSuites[0].Name != "zuite" {
		t.Errorf("Render() reordered the input suites")
	}
}

func TestRenderUsesStoredTotals(t *testing.T) {
	// the template reports what the producer advertised, it never recomputes
	ctx := testContext()
	ctx.TestSuites[0].TotalTests = 42

	got, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(got, " 42 total:") {
		t.Errorf("Render() = %q, expected the stored total of 42", got)
	}
	if !strings.Contains(got, "suiteA - 42 tests:") {
		t.Errorf("Render() = %q, expected the stored total of 42 in the Tests section", got)
	}
}

func TestRenderEscapesSuiteName(t *testing.T) {
	ctx := testContext()
	ctx.TestSuites[0].Name = "suite<&>"

	got, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(got, "suite&lt;&amp;&gt; - 3 tests:") {
		t.Errorf("Render() = %q, expected the suite name escaped in the Tests section", got)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	ctx := testContext()
	first, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, err := Render(ctx)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if first != second {
		t.Errorf("Render() is not idempotent: %q != %q", first, second)
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*kcimodel.ReportContext)
		labName string
		want    string
	}{
		{
			name:   "with failures",
			mutate: func(ctx *kcimodel.ReportContext) {},
			want:   "mainline test results: 3 tests: 2 passed, 1 failed (v4.4-rc1)",
		},
		{
			name: "all passed",
			mutate: func(ctx *kcimodel.ReportContext) {
				ctx.TestSuites[0].TotalPass = 3
				ctx.TestSuites[0].TotalFail = 0
			},
			want: "mainline test results: 3 tests: 3 passed (v4.4-rc1)",
		},
		{
			name: "with skips",
			mutate: func(ctx *kcimodel.ReportContext) {
				ctx.TestSuites[0].TotalFail = 0
				ctx.TestSuites[0].TotalSkip = 1
			},
			want: "mainline test results: 3 tests: 2 passed, 1 skipped (v4.4-rc1)",
		},
		{
			name:    "with lab",
			mutate:  func(ctx *kcimodel.ReportContext) {},
			labName: "lab-baylibre",
			want:    "mainline test results: 3 tests: 2 passed, 1 failed (v4.4-rc1) - lab-baylibre",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext()
			tt.mutate(&ctx)
			if got := Subject(ctx, tt.labName); got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	got, err := Email(testContext(), "", "info@kernelci.org")
	if err != nil {
		t.Fatalf("Email() error = %v", err)
	}

	if !strings.HasPrefix(got, "mainline test results: 3 tests: 2 passed, 1 failed (v4.4-rc1)\n\n") {
		t.Errorf("Email() = %q, expected the subject line first", got)
	}
	if !strings.Contains(got, "Tested: 1 unique boards, 1 labs\n") {
		t.Errorf("Email() = %q, expected a Tested summary line", got)
	}
	if !strings.Contains(got, "Tree: mainline\n") {
		t.Errorf("Email() = %q, expected the rendered report body", got)
	}
	if !strings.HasSuffix(got, "---\nFor more info write to <info@kernelci.org>\n") {
		t.Errorf("Email() = %q, expected the info footer", got)
	}
}

func TestResultsChart(t *testing.T) {
	svg, err := ResultsChart(testContext())
	if err != nil {
		t.Fatalf("ResultsChart() error = %v", err)
	}
	if !strings.Contains(svg, "<svg") {
		t.Errorf("ResultsChart() did not produce SVG output")
	}
	if strings.Contains(svg, "rgba(") {
		t.Errorf("ResultsChart() left unfixed rgba() colours in the SVG")
	}
}
