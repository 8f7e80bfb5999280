package main

import (
	"github.com/BayLibre/kernelci-backend/cmd/kcireport/cmd"
)

var (
	version = "0.0.0" // deployed version will be taken from release tags
)

func main() {
	cmd.Execute(version)
}
