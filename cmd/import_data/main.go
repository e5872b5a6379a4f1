package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
)

// Seeds the reference tables from CSV files. Expects ingredients.csv with
// columns name,measurement_unit and tags.csv with columns name,slug, both
// with a header row. Existing rows are left untouched.
func main() {
	dataDir := flag.String("data", "data", "Directory containing ingredients.csv and tags.csv")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := importIngredients(db, filepath.Join(*dataDir, "ingredients.csv")); err != nil {
		log.Fatalf("Failed to import ingredients: %v", err)
	}
	if err := importTags(db, filepath.Join(*dataDir, "tags.csv")); err != nil {
		log.Fatalf("Failed to import tags: %v", err)
	}

	fmt.Println("Import complete.")
}

func importIngredients(db *gorm.DB, path string) error {
	rows, err := readCSV(path, []string{"name", "measurement_unit"})
	if err != nil {
		return err
	}

	count := 0
	for _, row := range rows {
		ingredient := models.Ingredient{
			Name:            row["name"],
			MeasurementUnit: row["measurement_unit"],
		}
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ingredient)
		if result.Error != nil {
			return fmt.Errorf("insert ingredient %q: %w", ingredient.Name, result.Error)
		}
		count += int(result.RowsAffected)
	}

	fmt.Printf("Imported %d ingredients from %s\n", count, path)
	return nil
}

func importTags(db *gorm.DB, path string) error {
	rows, err := readCSV(path, []string{"name", "slug"})
	if err != nil {
		return err
	}

	count := 0
	for _, row := range rows {
		tag := models.Tag{
			Name: row["name"],
			Slug: row["slug"],
		}
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
		if result.Error != nil {
			return fmt.Errorf("insert tag %q: %w", tag.Name, result.Error)
		}
		count += int(result.RowsAffected)
	}

	fmt.Printf("Imported %d tags from %s\n", count, path)
	return nil
}

// readCSV reads a headered CSV file and returns one map per row keyed by
// column name. Required columns missing from the header are an error.
func readCSV(path string, required []string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[col] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(required))
		for _, col := range required {
			row[col] = record[index[col]]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
