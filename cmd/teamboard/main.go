package main

import (
	"flag"

	server "kyri56xcaesar/teamboard/internal/server"
)

func main() {
	confPath := flag.String("config", ".env", "path to the env configuration file")
	flag.Parse()

	server.InitAndServe(*confPath)
}
