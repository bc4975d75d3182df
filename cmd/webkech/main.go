package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/webkech/internal/buildinfo"
	"github.com/dmitrijs2005/webkech/internal/client/cli"
)

func main() {

	buildinfo.PrintBuildData(os.Stderr)

	os.Exit(cli.Main(context.Background()))
}
