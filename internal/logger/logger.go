package logger

import "go.uber.org/zap"

// New builds the process logger. Development mode swaps the JSON
// encoder for the console one.
func New(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
