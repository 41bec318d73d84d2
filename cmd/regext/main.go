package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		logger.Error(err)
		os.Exit(2)
	}
}
