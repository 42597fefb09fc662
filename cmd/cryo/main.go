package main

import (
	"github.com/Paintersrp/cryo/internal/cli"
	"github.com/Paintersrp/cryo/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
