package assets

//TestReport is the plain-text test report template. Suites appear sorted by name in
//both the Summary and Tests sections; test cases keep the order they were submitted in
var TestReport = `Tree: {{.Tree}}
Branch: {{.Branch}}
Kernel: {{.Kernel}}
URL: {{.GitURL}}
Commit: {{.GitCommit}}

Summary
-------
{{len .TestSuites}} test suites results
{{range sortedSuites .TestSuites}}{{printf "%-10s | %-22s | %3d total: %3d PASS %3d FAIL %3d SKIP" .Name .Board .TotalTests .TotalPass .TotalFail .TotalSkip}}
{{end}}
Tests
-----
{{range sortedSuites .TestSuites}}{{escape .Name}} - {{.TotalTests}} tests: {{.TotalPass}}  PASS, {{.TotalFail}} FAIL, {{.TotalSkip}} SKIP
  Config: {{.DefconfigFull}}
  Lab Name: {{.LabName}}
  Board: {{.Board}}
  Date: {{date .CreatedOn}}
  Test cases:
{{range .TestCases}}    * {{.Name}} : {{.Status}}
{{end}}
{{end}}`
