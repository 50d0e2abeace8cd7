package pricewatch

import (
	"fmt"
	"time"
)

type ConsoleLogger struct{}

func (logger ConsoleLogger) Printf(format string, a ...interface{}) {
	fmt.Printf("%v ", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf(format, a...)
	fmt.Println()
}
