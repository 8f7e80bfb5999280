package main

import (
	kernelci "github.com/BayLibre/kernelci-backend/pkg"
)

func main() {
	kernelci.Service(kernelci.KernelCIConfigPath)
}
