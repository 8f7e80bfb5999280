package kcimodel

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

//TestSuiteSorter sorts test suites by name, ascending
type TestSuiteSorter []TestSuite

func (k TestSuiteSorter) Len() int {
	return len(k)
}

func (k TestSuiteSorter) Swap(i, j int) {
	k[i], k[j] = k[j], k[i]
}
func (k TestSuiteSorter) Less(i, j int) bool {
	return k[i].Name < k[j].Name
}

//SortedSuites returns a name-sorted copy of the test suites, leaving the input untouched.
//The sort is stable so suites sharing a name keep their input order
func SortedSuites(suites []TestSuite) []TestSuite {
	sorted := make([]TestSuite, len(suites))
	copy(sorted, suites)
	sort.Stable(TestSuiteSorter(sorted))
	return sorted
}

//UniqueData captures the distinct boards, labs and configurations seen across suites
type UniqueData struct {
	Boards     sets.String
	Labs       sets.String
	Defconfigs sets.String
}

//GetUniqueData collects the distinct non-empty board, lab and defconfig values of the suites
func GetUniqueData(suites []TestSuite) UniqueData {
	unique := UniqueData{
		Boards:     sets.NewString(),
		Labs:       sets.NewString(),
		Defconfigs: sets.NewString(),
	}
	for _, s := range suites {
		if s.Board != "" {
			unique.Boards.Insert(s.Board)
		}
		if s.LabName != "" {
			unique.Labs.Insert(s.LabName)
		}
		if s.DefconfigFull != "" {
			unique.Defconfigs.Insert(s.DefconfigFull)
		}
	}
	return unique
}
