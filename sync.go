package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// runSync fetches both configured sheets and writes the rendered documents
// under src/ for the static frontend build to pick up.
func runSync() error {
	godotenv.Load()

	studentsURL := os.Getenv("STUDENTS_SCHEDULE_URL")
	teachersURL := os.Getenv("TEACHERS_SCHEDULE_URL")
	if studentsURL == "" || teachersURL == "" {
		return fmt.Errorf("STUDENTS_SCHEDULE_URL and TEACHERS_SCHEDULE_URL env variables must be set")
	}

	if err := syncDocument(studentsURL, false, filepath.Join("src", "students.json")); err != nil {
		return err
	}
	return syncDocument(teachersURL, true, filepath.Join("src", "teachers.json"))
}

func syncDocument(sheetURL string, teachers bool, path string) error {
	grid, err := loadSheet(sheetURL, teachers)
	if err != nil {
		return err
	}

	var schedule *Schedule
	if teachers {
		schedule, err = buildTeachersSchedule(grid)
	} else {
		schedule, err = buildStudentsSchedule(grid)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(schedule, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}

	log.Printf("💾 Saved %d schedules to %s", len(schedule.entries), path)
	return nil
}
