package recorder

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "recorder")

func initializeCSV(filename string, header []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Errorf("failed to close %s: %v", filename, err)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", filename, err)
	}
	writer.Flush()
	return writer.Error()
}

func appendToCSV(filename string, data [][]string) error {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Errorf("failed to close %s: %v", filename, err)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return fmt.Errorf("write data to %s: %w", filename, err)
	}
	return writer.Error()
}
