package common

import (
	"flag"
)

var Version = "v0.1.0"

var StartTime = int64(0)

var (
	Port = flag.Int("port", 3000, "the listening port")
)

func Init() {
	flag.Parse()
}
