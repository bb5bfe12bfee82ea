package main

import (
	"banks-etl/cmd/banks-etl/commands"
	"banks-etl/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
