package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/roster/internal/core"
)

// Output formats
const (
	formatCSV  = "csv"
	formatJSON = "json"
)

// exportColumns is the CSV header of exported numbers.
var exportColumns = []string{"id", "phoneNumber", "name", "age", "assignee", "importTime", "fileName"}

// writeNumbers writes records in the given format.
func writeNumbers(w io.Writer, format string, records []core.NumberRecord) error {
	switch format {
	case formatJSON:
		return writeJSON(w, records)
	case formatCSV, "":
		return writeNumbersCSV(w, records)
	default:
		return fmt.Errorf("unknown output format %q (want csv or json)", format)
	}
}

func writeNumbersCSV(w io.Writer, records []core.NumberRecord) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(exportColumns); err != nil {
		return err
	}
	for _, n := range records {
		record := []string{
			strconv.FormatInt(n.ID, 10),
			n.PhoneNumber,
			n.Name,
			core.FormatAge(n.Age),
			n.Assignee,
			n.ImportTime,
			n.FileName,
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNumber writes one number as a single human-readable line.
func printNumber(w io.Writer, n core.NumberRecord) {
	assignee := n.Assignee
	if assignee == "" {
		assignee = "-"
	}
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
		n.ID, n.PhoneNumber, n.Name, core.FormatAge(n.Age), assignee, n.ImportTime, n.FileName)
}

func printPerson(w io.Writer, p core.PersonRecord) {
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.DisplayName, p.Name, p.Purpose, p.Remark)
}

func printStats(w io.Writer, st core.ParseStats) {
	fmt.Fprintf(w, "新增 %d 条，库内重复 %d 条，批内重复 %d 条，格式错误 %d 条\n",
		st.Accepted, st.DuplicateInStore, st.DuplicateInBatch, st.Malformed)
}
