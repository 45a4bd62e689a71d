package main

import "fmt"

const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitArg         = 2
	ExitInterrupted = 130
)

type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Msg
}
