// Package export flattens students and activities into spreadsheet rows
// and writes them as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the day/month/year layout used in exported cells.
const DateLayout = "02/01/2006"

// Sheet names in the XLSX workbook.
const (
	StudentsSheet   = "Students"
	ActivitiesSheet = "Activities"
)

var (
	studentHeader  = []string{"ID", "Name", "Email", "Activities", "Registered"}
	activityHeader = []string{"ID", "Name", "Description", "Students", "Created"}
)

// StudentRows renders one row per student. Activity ids are replaced by
// their names when known.
func StudentRows(students []types.Student, activities []types.Activity) [][]string {
	names := make(map[string]string, len(activities))
	for _, a := range activities {
		names[a.ID] = a.Name
	}

	rows := make([][]string, 0, len(students))
	for _, s := range students {
		labels := make([]string, 0, len(s.Activities))
		for _, id := range s.Activities {
			if name, ok := names[id]; ok {
				labels = append(labels, name)
			} else {
				labels = append(labels, id)
			}
		}
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.Email,
			strings.Join(labels, ", "),
			s.RegisteredAt.Format(DateLayout),
		})
	}
	return rows
}

// ActivityRows renders one row per activity.
func ActivityRows(activities []types.Activity) [][]string {
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			a.Description,
			strconv.Itoa(a.StudentCount),
			a.CreatedAt.Format(DateLayout),
		})
	}
	return rows
}

// WriteStudentsCSV writes a header and the student rows to w.
func WriteStudentsCSV(w io.Writer, students []types.Student, activities []types.Activity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(studentHeader); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}
	if err := cw.WriteAll(StudentRows(students, activities)); err != nil {
		return fmt.Errorf("export: csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a Students and an Activities sheet.
func WriteXLSX(w io.Writer, students []types.Student, activities []types.Activity) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ActivitiesSheet); err != nil {
		return fmt.Errorf("export: add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	if err := fillSheet(f, StudentsSheet, studentHeader, StudentRows(students, activities), bold); err != nil {
		return err
	}
	if err := fillSheet(f, ActivitiesSheet, activityHeader, ActivityRows(activities), bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	for r, row := range append([][]string{header}, rows...) {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("export: %s cell: %w", sheet, err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("export: %s %s: %w", sheet, cell, err)
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: %s header: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("export: %s header style: %w", sheet, err)
	}
	return nil
}
