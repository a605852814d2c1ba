// Command benin-etl downloads the public demographic sources on Benin and
// writes cleaned tables for analysis. Each subcommand runs one pipeline;
// "all" runs every pipeline in dependency order.
//
// Usage:
//
//	benin-etl population --raster-dir data/raw/worldpop
//	benin-etl education --policy fatal
//	benin-etl all --preview 5
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
